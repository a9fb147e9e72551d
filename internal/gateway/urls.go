package gateway

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"digilocker/internal/model"
)

// URLScheme maps object keys to the public URLs stored in file_url and back.
// A URL has the form {BaseURL}/{Bucket}/{key}, with every key segment escaped.
type URLScheme struct {
	BaseURL string
	Bucket  string
}

// ObjectKey builds the storage path of one uploaded record:
// {id}/{unixMillis}-{recordID}-{basename}. The record id keeps same-named
// files uploaded in the same millisecond apart.
func (u URLScheme) ObjectKey(id model.Identifier, recordID, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%d-%s-%s", id, at.UnixMilli(), recordID, BaseName(filename))
}

// PublicURL returns the URL a stored object is reachable at.
func (u URLScheme) PublicURL(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return u.prefix() + strings.Join(segs, "/")
}

// Join resolves a path relative to BaseURL ("{bucket}/{key}") into a full URL.
func (u URLScheme) Join(rel string) string {
	return strings.TrimRight(u.BaseURL, "/") + "/" + strings.TrimLeft(rel, "/")
}

// KeyFromURL strips the public prefix from fileURL and unescapes the remainder.
func (u URLScheme) KeyFromURL(fileURL string) (string, error) {
	rest, ok := strings.CutPrefix(fileURL, u.prefix())
	if !ok || rest == "" {
		return "", &model.ValidationError{Field: "file_url", Reason: "not a locker file url"}
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", &model.ValidationError{Field: "file_url", Reason: "bad escaping"}
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", &model.ValidationError{Field: "file_url", Reason: "bad path segment"}
		}
	}
	return key, nil
}

func (u URLScheme) prefix() string {
	return strings.TrimRight(u.BaseURL, "/") + "/" + u.Bucket + "/"
}

// BaseName returns the last element of a client supplied file name,
// accepting both slash styles.
func BaseName(name string) string {
	b := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if b == "." || b == "/" {
		return ""
	}
	return b
}
