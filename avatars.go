package phonebook

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AvatarSize is the square dimension processed avatars are resized to.
const AvatarSize = 250

// AvatarProcessor stages an uploaded image, resizes it, publishes it under
// the public avatars directory, and records the new URL on the user.
type AvatarProcessor struct {
	repo      RepositoryManager
	publicDir string
	tmpDir    string
	baseURL   string
	logger    Logger
}

// NewAvatarProcessor will create a new AvatarProcessor
func NewAvatarProcessor(repo RepositoryManager, publicDir, tmpDir, baseURL string) *AvatarProcessor {
	return &AvatarProcessor{
		repo:      repo,
		publicDir: publicDir,
		tmpDir:    tmpDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    defLogger{},
	}
}

func (p *AvatarProcessor) WithLogger(l Logger) *AvatarProcessor {
	if l != nil {
		p.logger = l
	}
	return p
}

// Process runs the pipeline for one upload. Once the source has been staged,
// every failure path removes the staged file before returning; no orphaned
// uploads survive a failed request. Concurrent uploads for the same user are
// unordered and the last avatar_url write wins.
func (p *AvatarProcessor) Process(ctx context.Context, user *User, src io.Reader, filename string) (string, error) {
	if user == nil {
		return "", ErrNotAuthorized
	}
	if src == nil {
		return "", goerrors.New("missing avatar file", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	staged, err := p.stage(src, filename)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to stage avatar upload")
	}

	url, err := p.publish(ctx, user, staged)
	if err != nil {
		if rerr := os.Remove(staged); rerr != nil && !os.IsNotExist(rerr) {
			p.logger.Error("failed to remove staged avatar", "path", staged, "error", rerr)
		}
		return "", err
	}

	return url, nil
}

func (p *AvatarProcessor) publish(ctx context.Context, user *User, staged string) (string, error) {
	img, err := imaging.Open(staged)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode avatar image")
	}

	thumb := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	// Re-encode in place so the move below is a rename, not a copy.
	if err := imaging.Save(thumb, staged); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode resized avatar")
	}

	if err := os.MkdirAll(p.publicDir, 0o755); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create avatars directory")
	}

	name := fmt.Sprintf("%s_%d%s", user.ID.String(), time.Now().UnixNano(), filepath.Ext(staged))
	final := filepath.Join(p.publicDir, name)

	if err := os.Rename(staged, final); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to publish avatar")
	}

	url := p.baseURL + "/avatars/" + name

	if err := p.repo.Users().UpdateAvatar(ctx, user.ID, url); err != nil {
		// The file already moved out of staging; drop it too so the failed
		// request leaves nothing behind.
		if rerr := os.Remove(final); rerr != nil && !os.IsNotExist(rerr) {
			p.logger.Error("failed to remove published avatar after record update failure", "path", final, "error", rerr)
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update avatar record")
	}

	user.AvatarURL = url
	return url, nil
}

func (p *AvatarProcessor) stage(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(p.tmpDir, 0o755); err != nil {
		return "", err
	}

	staged := filepath.Join(p.tmpDir, uuid.NewString()+normalizeImageExt(filename))

	dst, err := os.Create(staged)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(staged)
		return "", err
	}

	if err := dst.Close(); err != nil {
		os.Remove(staged)
		return "", err
	}

	return staged, nil
}

// normalizeImageExt keeps extensions the encoder supports and falls back to
// png for anything else.
func normalizeImageExt(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff", ".bmp":
		return ext
	default:
		return ".png"
	}
}
