package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vodarc/vodarc/internal/domain"
)

// Resolver shells out to yt-dlp to turn a watch-page URL into a direct
// media URL plus metadata, without downloading anything itself.
type Resolver struct {
	BinaryPath string
	CookieFile string
}

func NewResolver(binary, cookieFile string) (*Resolver, error) {
	if binary == "" {
		binary = "yt-dlp"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp binary not found in PATH: %w", err)
	}
	return &Resolver{BinaryPath: path, CookieFile: cookieFile}, nil
}

// infoJSON is the slice of yt-dlp's -J output we care about.
type infoJSON struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Thumbnail        string       `json:"thumbnail"`
	Timestamp        int64        `json:"timestamp"`
	UploaderID       string       `json:"uploader_id"`
	Uploader         string       `json:"uploader"`
	IsLive           bool         `json:"is_live"`
	LiveStatus       string       `json:"live_status"`
	ReleaseTimestamp int64        `json:"release_timestamp"`
	Formats          []formatJSON `json:"formats"`
}

type formatJSON struct {
	URL            string  `json:"url"`
	Ext            string  `json:"ext"`
	Protocol       string  `json:"protocol"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
}

// Resolve extracts metadata and picks the best directly-fetchable format.
func (r *Resolver) Resolve(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	args := []string{"-J", "--no-warnings"}
	if r.CookieFile != "" {
		args = append(args, "--cookies", r.CookieFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, wrapExtractorError(stderr.String(), err)
	}

	var info infoJSON
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse extractor output: %w", err)
	}

	meta := &domain.VideoMetadata{
		VideoID:          info.ID,
		Title:            info.Title,
		Description:      info.Description,
		ImageURI:         info.Thumbnail,
		Published:        info.Timestamp,
		UploaderID:       info.UploaderID,
		UploaderName:     info.Uploader,
		IsLive:           info.IsLive,
		LiveStatus:       info.LiveStatus,
		ReleaseTimestamp: info.ReleaseTimestamp,
	}

	best, err := bestFormat(info.Formats)
	if err != nil {
		return meta, err
	}

	meta.VideoURL = best.URL
	meta.Ext = best.Ext
	meta.MimeType = "video/mp4"
	meta.Filesize = best.Filesize
	if meta.Filesize == 0 && best.FilesizeApprox > 0 {
		meta.Filesize = int64(best.FilesizeApprox)
	}
	return meta, nil
}

// bestFormat picks the highest-quality mp4 format served over plain HTTPS.
// The extractor lists formats in ascending quality, so we walk it backwards.
func bestFormat(formats []formatJSON) (*formatJSON, error) {
	for i := len(formats) - 1; i >= 0; i-- {
		f := formats[i]
		if f.Ext == "mp4" && f.Protocol == "https" && f.URL != "" {
			return &formats[i], nil
		}
	}
	return nil, fmt.Errorf("no directly downloadable mp4 format found")
}

// Phrases in extractor stderr that mean our cookies are dead, not the video.
var cookiePhrases = []string{
	"sign in to confirm",
	"cookies are no longer valid",
	"confirm you're not a bot",
	"use --cookies",
}

func wrapExtractorError(stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return fmt.Errorf("extractor failed: %w", err)
	}

	lower := strings.ToLower(msg)
	for _, p := range cookiePhrases {
		if strings.Contains(lower, p) {
			return fmt.Errorf("%w: %s", domain.ErrCookieExpired, msg)
		}
	}
	return fmt.Errorf("extractor failed: %s", msg)
}
