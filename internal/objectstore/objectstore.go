// Package objectstore keeps the original uploaded files and returns durable URLs for them.
package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/hyperjump/resumatch/internal/config"
)

// Store persists an uploaded file under key and returns a URL that serves it.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ObjectKey returns {prefix}/{hash}-{name} where hash is the first 16 hex chars of the
// content's SHA-256. Identical bytes uploaded under the same name share a key.
func ObjectKey(prefix, filename string, content []byte) string {
	sum := sha256.Sum256(content)
	name := SafeName(filename)
	key := hex.EncodeToString(sum[:])[:16] + "-" + name
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// SafeName reduces a client-supplied filename to its base name without path separators.
func SafeName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return name
}

// escapeKey percent-encodes each path segment of key for use in a URL.
func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// New builds the configured store: "s3" (S3 or R2) or "disk".
func New(ctx context.Context, cfg config.ObjectStoreConfig) (Store, error) {
	switch cfg.Type {
	case "s3", "r2":
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "disk", "":
		s, err := NewDiskStore(cfg.Dir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown object store type %q", cfg.Type)
	}
}
