// Package cache persists snapshots, org ids, and gate state under the
// platform cache and state directories, keyed by provider id. Snapshot and
// gate files use a protobuf wire encoding: self-describing, compact, and
// tolerant of unknown fields so older binaries can read newer files.
package cache

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

// Snapshot field numbers. Append-only: numbers are never reused.
const (
	snapFieldProvider  = 1
	snapFieldFetchedAt = 2
	snapFieldPeriod    = 3
	snapFieldOverage   = 4
	snapFieldIdentity  = 5
	snapFieldSource    = 6
	snapFieldStatus    = 7
)

const (
	periodFieldName        = 1
	periodFieldUtilization = 2
	periodFieldType        = 3
	periodFieldResetsAt    = 4
	periodFieldModel       = 5
)

const (
	overageFieldUsed     = 1
	overageFieldLimit    = 2
	overageFieldCurrency = 3
	overageFieldEnabled  = 4
)

const (
	identityFieldEmail = 1
	identityFieldOrg   = 2
	identityFieldPlan  = 3
)

const (
	statusFieldLevel       = 1
	statusFieldDescription = 2
	statusFieldUpdatedAt   = 3
)

// EncodeSnapshot serializes a snapshot to protobuf wire format.
func EncodeSnapshot(s models.UsageSnapshot) []byte {
	var b []byte
	b = appendString(b, snapFieldProvider, s.Provider)
	b = appendTime(b, snapFieldFetchedAt, s.FetchedAt)
	for _, p := range s.Periods {
		b = appendMessage(b, snapFieldPeriod, encodePeriod(p))
	}
	if s.Overage != nil {
		b = appendMessage(b, snapFieldOverage, encodeOverage(*s.Overage))
	}
	if s.Identity != nil {
		b = appendMessage(b, snapFieldIdentity, encodeIdentity(*s.Identity))
	}
	b = appendString(b, snapFieldSource, s.Source)
	if s.Status != nil {
		b = appendMessage(b, snapFieldStatus, encodeStatus(*s.Status))
	}
	return b
}

// DecodeSnapshot parses protobuf wire format back into a snapshot.
// Unknown fields are skipped; malformed input returns an error, which
// callers treat as a cache miss.
func DecodeSnapshot(data []byte) (models.UsageSnapshot, error) {
	var s models.UsageSnapshot
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error {
		switch num {
		case snapFieldProvider:
			s.Provider = string(val)
		case snapFieldFetchedAt:
			s.FetchedAt = timeFromNanos(int64(vint))
		case snapFieldPeriod:
			p, err := decodePeriod(val)
			if err != nil {
				return err
			}
			s.Periods = append(s.Periods, p)
		case snapFieldOverage:
			o, err := decodeOverage(val)
			if err != nil {
				return err
			}
			s.Overage = &o
		case snapFieldIdentity:
			id, err := decodeIdentity(val)
			if err != nil {
				return err
			}
			s.Identity = &id
		case snapFieldSource:
			s.Source = string(val)
		case snapFieldStatus:
			st, err := decodeStatus(val)
			if err != nil {
				return err
			}
			s.Status = &st
		}
		return nil
	})
	return s, err
}

func encodePeriod(p models.UsagePeriod) []byte {
	var b []byte
	b = appendString(b, periodFieldName, p.Name)
	b = protowire.AppendTag(b, periodFieldUtilization, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(p.Utilization)))
	b = appendString(b, periodFieldType, string(p.PeriodType))
	if p.ResetsAt != nil {
		b = appendTime(b, periodFieldResetsAt, *p.ResetsAt)
	}
	b = appendString(b, periodFieldModel, p.Model)
	return b
}

func decodePeriod(data []byte) (models.UsagePeriod, error) {
	var p models.UsagePeriod
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error {
		switch num {
		case periodFieldName:
			p.Name = string(val)
		case periodFieldUtilization:
			p.Utilization = int(int64(vint))
		case periodFieldType:
			p.PeriodType = models.PeriodType(val)
		case periodFieldResetsAt:
			t := timeFromNanos(int64(vint))
			p.ResetsAt = &t
		case periodFieldModel:
			p.Model = string(val)
		}
		return nil
	})
	return p, err
}

func encodeOverage(o models.OverageUsage) []byte {
	var b []byte
	b = protowire.AppendTag(b, overageFieldUsed, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(o.Used))
	b = protowire.AppendTag(b, overageFieldLimit, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(o.Limit))
	b = appendString(b, overageFieldCurrency, o.Currency)
	b = protowire.AppendTag(b, overageFieldEnabled, protowire.VarintType)
	b = protowire.AppendVarint(b, boolBit(o.IsEnabled))
	return b
}

func decodeOverage(data []byte) (models.OverageUsage, error) {
	var o models.OverageUsage
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error {
		switch num {
		case overageFieldUsed:
			o.Used = math.Float64frombits(vint)
		case overageFieldLimit:
			o.Limit = math.Float64frombits(vint)
		case overageFieldCurrency:
			o.Currency = string(val)
		case overageFieldEnabled:
			o.IsEnabled = vint != 0
		}
		return nil
	})
	return o, err
}

func encodeIdentity(id models.ProviderIdentity) []byte {
	var b []byte
	b = appendString(b, identityFieldEmail, id.Email)
	b = appendString(b, identityFieldOrg, id.Organization)
	b = appendString(b, identityFieldPlan, id.Plan)
	return b
}

func decodeIdentity(data []byte) (models.ProviderIdentity, error) {
	var id models.ProviderIdentity
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error {
		switch num {
		case identityFieldEmail:
			id.Email = string(val)
		case identityFieldOrg:
			id.Organization = string(val)
		case identityFieldPlan:
			id.Plan = string(val)
		}
		return nil
	})
	return id, err
}

func encodeStatus(st models.ProviderStatus) []byte {
	var b []byte
	b = appendString(b, statusFieldLevel, string(st.Level))
	b = appendString(b, statusFieldDescription, st.Description)
	if st.UpdatedAt != nil {
		b = appendTime(b, statusFieldUpdatedAt, *st.UpdatedAt)
	}
	return b
}

func decodeStatus(data []byte) (models.ProviderStatus, error) {
	var st models.ProviderStatus
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error {
		switch num {
		case statusFieldLevel:
			st.Level = models.StatusLevel(val)
		case statusFieldDescription:
			st.Description = string(val)
		case statusFieldUpdatedAt:
			t := timeFromNanos(int64(vint))
			st.UpdatedAt = &t
		}
		return nil
	})
	return st, err
}

// walkFields iterates every field in a wire-format message, invoking fn with
// the field number and either the bytes payload (length-delimited) or the
// numeric payload (varint/fixed64). Unknown wire types are skipped so
// decoders stay forward-compatible.
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, val []byte, vint uint64) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("malformed varint for field %d: %w", num, protowire.ParseError(n))
			}
			if err := fn(num, typ, nil, v); err != nil {
				return err
			}
			data = data[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("malformed fixed64 for field %d: %w", num, protowire.ParseError(n))
			}
			if err := fn(num, typ, nil, v); err != nil {
				return err
			}
			data = data[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("malformed bytes for field %d: %w", num, protowire.ParseError(n))
			}
			if err := fn(num, typ, v, 0); err != nil {
				return err
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("malformed field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

// appendString appends a length-delimited string field, omitting empties so
// the encoding stays minimal.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// appendTime appends an instant as unix nanoseconds. Zero times are omitted.
func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(t.UnixNano()))
}

func timeFromNanos(nanos int64) time.Time {
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

func boolBit(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
