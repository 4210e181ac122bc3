// Package updater checks GitHub releases for a newer vibeusage build and
// swaps the running binary in place.
package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	releaseOwner       = "joshuadavidthomas"
	releaseRepo        = "vibeusage"
	githubAPIBase      = "https://api.github.com"
	userAgent          = "vibeusage-updater"
	binaryName         = "vibeusage"
	checksumsAssetName = "checksums.txt"
)

// Updater checks and applies releases. Releases are fetched with a
// dedicated client since archive downloads outlive the shared client's
// request timeout.
type Updater struct {
	APIBase string
	HTTP    *http.Client
}

func New() *Updater {
	return &Updater{
		APIBase: githubAPIBase,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// CheckResult describes update availability for this platform.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	ReleaseURL      string
	ReleaseNotes    string
	AssetName       string
	AssetURL        string
	ChecksumsURL    string
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Updated    bool
	OldVersion string
	NewVersion string
	BinaryPath string
}

type release struct {
	TagName string  `json:"tag_name"`
	Body    string  `json:"body"`
	HTMLURL string  `json:"html_url"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Check fetches the latest release and compares it with currentVersion.
func (u *Updater) Check(ctx context.Context, currentVersion string) (CheckResult, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		strings.TrimSuffix(u.APIBase, "/"), releaseOwner, releaseRepo)

	body, err := u.get(ctx, endpoint, "application/vnd.github+json")
	if err != nil {
		return CheckResult{}, fmt.Errorf("checking for updates: %w", err)
	}

	var rel release
	if err := json.Unmarshal(body, &rel); err != nil {
		return CheckResult{}, fmt.Errorf("parsing release metadata: %w", err)
	}
	if rel.TagName == "" {
		return CheckResult{}, fmt.Errorf("release metadata missing tag_name")
	}

	assetName, err := platformAssetName(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return CheckResult{}, err
	}
	assetURL := ""
	checksumsURL := ""
	for _, a := range rel.Assets {
		switch {
		case a.Name == assetName:
			assetURL = a.BrowserDownloadURL
		case a.Name == checksumsAssetName || strings.HasSuffix(a.Name, "_checksums.txt"):
			checksumsURL = a.BrowserDownloadURL
		}
	}
	if assetURL == "" {
		return CheckResult{}, fmt.Errorf("release %s has no asset for %s/%s", rel.TagName, runtime.GOOS, runtime.GOARCH)
	}

	return CheckResult{
		CurrentVersion:  currentVersion,
		LatestVersion:   rel.TagName,
		UpdateAvailable: IsNewer(currentVersion, rel.TagName),
		ReleaseURL:      rel.HTMLURL,
		ReleaseNotes:    rel.Body,
		AssetName:       assetName,
		AssetURL:        assetURL,
		ChecksumsURL:    checksumsURL,
	}, nil
}

// Apply downloads the release asset, verifies its checksum, and replaces
// the running binary.
func (u *Updater) Apply(ctx context.Context, check CheckResult) (ApplyResult, error) {
	if !check.UpdateAvailable {
		return ApplyResult{OldVersion: check.CurrentVersion, NewVersion: check.LatestVersion}, nil
	}
	if check.ChecksumsURL == "" {
		return ApplyResult{}, fmt.Errorf("release %s has no checksums asset", check.LatestVersion)
	}

	checksums, err := u.get(ctx, check.ChecksumsURL, "")
	if err != nil {
		return ApplyResult{}, fmt.Errorf("downloading checksums: %w", err)
	}
	expected, ok := checksumFor(string(checksums), check.AssetName)
	if !ok {
		return ApplyResult{}, fmt.Errorf("checksums file missing entry for %s", check.AssetName)
	}

	archive, err := u.get(ctx, check.AssetURL, "")
	if err != nil {
		return ApplyResult{}, fmt.Errorf("downloading release asset: %w", err)
	}
	if err := verifySHA256(archive, expected); err != nil {
		return ApplyResult{}, err
	}

	binary, err := extractBinary(check.AssetName, archive)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("extracting binary: %w", err)
	}

	targetPath, err := currentBinaryPath()
	if err != nil {
		return ApplyResult{}, err
	}
	if err := replaceBinary(targetPath, binary); err != nil {
		return ApplyResult{}, err
	}

	return ApplyResult{
		Updated:    true,
		OldVersion: check.CurrentVersion,
		NewVersion: check.LatestVersion,
		BinaryPath: targetPath,
	}, nil
}

func (u *Updater) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	client := u.HTTP
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("request failed (%d): %s", resp.StatusCode, msg)
	}
	return body, nil
}

// IsNewer reports whether latest is a strictly newer semantic version than
// current. Unparseable versions (dev builds) never report an update.
func IsNewer(current, latest string) bool {
	cv := "v" + strings.TrimPrefix(strings.TrimSpace(current), "v")
	lv := "v" + strings.TrimPrefix(strings.TrimSpace(latest), "v")
	if !semver.IsValid(cv) || !semver.IsValid(lv) {
		return false
	}
	return semver.Compare(cv, lv) < 0
}

func platformAssetName(osName, arch string) (string, error) {
	switch arch {
	case "amd64", "arm64":
	default:
		return "", fmt.Errorf("unsupported architecture for self-update: %s", arch)
	}
	switch osName {
	case "linux", "darwin":
		return fmt.Sprintf("%s_%s_%s.tar.gz", binaryName, osName, arch), nil
	case "windows":
		return fmt.Sprintf("%s_windows_%s.zip", binaryName, arch), nil
	default:
		return "", fmt.Errorf("unsupported OS for self-update: %s", osName)
	}
}

func checksumFor(content, assetName string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if strings.TrimPrefix(fields[1], "*") == assetName {
			return fields[0], true
		}
	}
	return "", false
}

func verifySHA256(content []byte, expectedHex string) error {
	sum := sha256.Sum256(content)
	actual := hex.EncodeToString(sum[:])
	if actual != strings.ToLower(strings.TrimSpace(expectedHex)) {
		return fmt.Errorf("checksum mismatch for release asset")
	}
	return nil
}

func extractBinary(assetName string, archive []byte) ([]byte, error) {
	want := binaryName
	if strings.HasSuffix(assetName, ".zip") {
		want += ".exe"
		return extractFromZip(archive, want)
	}
	if strings.HasSuffix(assetName, ".tar.gz") {
		return extractFromTarGz(archive, want)
	}
	return nil, fmt.Errorf("unsupported archive format: %s", assetName)
}

func extractFromTarGz(archive []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Base(hdr.Name) != name {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("archive entry %s is empty", hdr.Name)
		}
		return body, nil
	}
	return nil, fmt.Errorf("binary %s not found in archive", name)
}

func extractFromZip(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if filepath.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		body, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr != nil {
			return nil, readErr
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("archive entry %s is empty", f.Name)
		}
		return body, nil
	}
	return nil, fmt.Errorf("binary %s not found in archive", name)
}

func currentBinaryPath() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating current executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return path, nil
}
