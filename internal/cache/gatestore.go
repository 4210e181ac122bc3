package cache

import (
	"os"
	"path/filepath"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/gate"
)

// Gate field numbers. Append-only, same rules as the snapshot codec.
const (
	gateFieldFailure     = 1
	gateFieldGatedUntil  = 2
	gateFieldConsecutive = 3
)

const (
	failureFieldTimestamp = 1
	failureFieldCategory  = 2
	failureFieldMessage   = 3
)

// GatePath returns the gate state file for a provider. Gate state lives
// under the state directory rather than the cache directory: clearing the
// cache must not reopen a gated provider.
func GatePath(providerID string) string {
	return filepath.Join(config.GatesDir(), providerID+".pb")
}

// GateStore persists gate state to per-provider files, implementing
// gate.Store.
type GateStore struct{}

func (GateStore) Load(providerID string) *gate.State {
	data, err := os.ReadFile(GatePath(providerID))
	if err != nil {
		return nil
	}
	st, err := decodeGateState(data)
	if err != nil {
		return nil
	}
	return &st
}

func (GateStore) Save(providerID string, st gate.State) error {
	return writeAtomic(GatePath(providerID), encodeGateState(st))
}

// ClearGate removes persisted gate state for a provider, or all providers
// when providerID is empty.
func ClearGate(providerID string) {
	if providerID != "" {
		_ = os.Remove(GatePath(providerID))
		return
	}
	entries, _ := os.ReadDir(config.GatesDir())
	for _, e := range entries {
		_ = os.Remove(filepath.Join(config.GatesDir(), e.Name()))
	}
}

func encodeGateState(st gate.State) []byte {
	var b []byte
	for _, f := range st.Failures {
		b = appendMessage(b, gateFieldFailure, encodeFailure(f))
	}
	if st.GatedUntil != nil {
		b = appendTime(b, gateFieldGatedUntil, *st.GatedUntil)
	}
	if st.Consecutive != 0 {
		b = protowire.AppendTag(b, gateFieldConsecutive, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(st.Consecutive)))
	}
	return b
}

func decodeGateState(data []byte) (gate.State, error) {
	var st gate.State
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error {
		switch num {
		case gateFieldFailure:
			f, err := decodeFailure(val)
			if err != nil {
				return err
			}
			st.Failures = append(st.Failures, f)
		case gateFieldGatedUntil:
			t := timeFromNanos(int64(vint))
			st.GatedUntil = &t
		case gateFieldConsecutive:
			st.Consecutive = int(int64(vint))
		}
		return nil
	})
	return st, err
}

func encodeFailure(f gate.FailureRecord) []byte {
	var b []byte
	b = appendTime(b, failureFieldTimestamp, f.Timestamp)
	b = appendString(b, failureFieldCategory, string(f.Category))
	b = appendString(b, failureFieldMessage, f.Message)
	return b
}

func decodeFailure(data []byte) (gate.FailureRecord, error) {
	var f gate.FailureRecord
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error {
		switch num {
		case failureFieldTimestamp:
			f.Timestamp = timeFromNanos(int64(vint))
		case failureFieldCategory:
			f.Category = apierr.Category(val)
		case failureFieldMessage:
			f.Message = string(val)
		}
		return nil
	})
	return f, err
}
