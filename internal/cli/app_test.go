package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digilocker/internal/auth"
	"digilocker/internal/gateway"
	"digilocker/internal/identity"
	"digilocker/internal/locker"
	"digilocker/internal/model"
	"digilocker/internal/navigator"
	"digilocker/internal/repository/inmemory"
	"digilocker/internal/storage"
)

// rejectingStorage fails Put for objects whose name ends with reject.
type rejectingStorage struct {
	*storage.Memory
	reject string
}

func (r *rejectingStorage) Put(ctx context.Context, key string, rd io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	if r.reject != "" && strings.HasSuffix(key, "-"+r.reject) {
		return storage.ObjectInfo{}, errors.New("quota exceeded")
	}
	return r.Memory.Put(ctx, key, rd, opt)
}

type harness struct {
	app   *App
	out   *bytes.Buffer
	store *rejectingStorage
	slot  *identity.MemorySlot
	dir   string
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	db, err := inmemory.New()
	require.NoError(t, err)
	store := &rejectingStorage{Memory: storage.NewMemory()}

	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	gw := gateway.New(store, db.Documents(), gateway.URLScheme{BaseURL: "http://files.test", Bucket: "reports"}, gateway.Options{
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	})
	slot := &identity.MemorySlot{}
	sess := locker.NewSession(identity.New(slot, func() string { return "HID-1" }), gw, locker.Options{})
	authSvc, err := auth.NewService(db.Users(), "test-secret", time.Hour)
	require.NoError(t, err)

	dir := t.TempDir()
	out := &bytes.Buffer{}
	app := NewApp(sess, authSvc, Options{
		In:          strings.NewReader(input),
		Out:         out,
		DownloadDir: filepath.Join(dir, "downloads"),
		PasswordFD:  -1,
	})
	require.NoError(t, os.MkdirAll(app.downloadDir, 0o755))
	return &harness{app: app, out: out, store: store, slot: slot, dir: dir}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func lines(l ...string) string { return strings.Join(l, "\n") + "\n" }

func TestRun_UploadSummaryDelete(t *testing.T) {
	src := t.TempDir()
	a := writeFile(t, src, "a.pdf", "%PDF-1.4 a")
	b := writeFile(t, src, "b.txt", "hello")

	h := newHarness(t, lines(
		"new",
		"select "+a+" "+b,
		"upload",
		"summary",
		"open 1",
		"link 2",
		"delete 1",
		"n",
		"delete 1",
		"y",
		"upload",
		"switch",
		"use HID-OLD",
		"quit",
	))

	require.NoError(t, h.app.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "Your new Health ID is HID-1.")
	assert.Contains(t, out, "Selected 2 file(s): a.pdf, b.txt")
	assert.Contains(t, out, "Uploaded 2 of 2 file(s).")
	assert.Contains(t, out, "  1. b.txt")
	assert.Contains(t, out, "  2. a.pdf")
	assert.Contains(t, out, "[pdf]")
	assert.Contains(t, out, "http://files.test/reports/HID-1/")
	assert.Contains(t, out, "Kept.")
	assert.Contains(t, out, "Deleted b.txt.")
	assert.Contains(t, out, "Using Health ID HID-OLD.")
	assert.Contains(t, out, "Bye!")
	assert.NotContains(t, out, "Error:")

	got, err := os.ReadFile(filepath.Join(h.app.downloadDir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	keys := h.store.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], "-a.pdf"))

	stored, ok, err := h.slot.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "HID-OLD", stored)
	assert.Equal(t, navigator.Upload, h.app.sess.Screen())
}

func TestRun_PartialUpload(t *testing.T) {
	src := t.TempDir()
	a := writeFile(t, src, "a.pdf", "%PDF-1.4 a")
	bad := writeFile(t, src, "bad.pdf", "%PDF-1.4 bad")
	c := writeFile(t, src, "c.png", "png")

	h := newHarness(t, lines(
		"new",
		"select "+a+" "+bad+" "+c,
		"upload",
		"summary",
	))
	h.store.reject = "bad.pdf"

	require.NoError(t, h.app.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "  stored  a.pdf")
	assert.Contains(t, out, "  failed  bad.pdf: upload failed for bad.pdf")
	assert.Contains(t, out, "  stored  c.png")
	assert.Contains(t, out, "Uploaded 2 of 3 file(s).")
	assert.Len(t, h.app.sess.Documents(), 2)
}

func TestRun_RestoresIdentity(t *testing.T) {
	h := newHarness(t, lines("summary", "quit"))
	require.NoError(t, h.slot.Save(context.Background(), "HID-9"))

	require.NoError(t, h.app.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "Welcome back. Health ID: HID-9")
	assert.Contains(t, out, "No documents uploaded yet.")
}

func TestRun_Errors(t *testing.T) {
	src := t.TempDir()
	files := make([]string, 6)
	for i := range files {
		files[i] = writeFile(t, src, string(rune('a'+i))+".pdf", "x")
	}

	h := newHarness(t, lines(
		"upload",
		"use   ",
		"new",
		"upload",
		"select "+strings.Join(files, " "),
		"select "+filepath.Join(src, "missing.pdf"),
		"summary",
		"open 3",
	))

	require.NoError(t, h.app.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "Unknown command: upload")
	assert.Contains(t, out, "Error: invalid health_id: must not be empty")
	assert.Contains(t, out, "Error: cannot submit:")
	assert.Contains(t, out, "Error: invalid files:")
	assert.Contains(t, out, "missing.pdf")
	assert.Contains(t, out, `Error: invalid document: "3" is not a number between 1 and 0`)
	assert.Empty(t, h.store.Keys())
}

func TestRun_Accounts(t *testing.T) {
	h := newHarness(t, lines(
		"register a@example.com",
		"secret1",
		"login",
		"a@example.com",
		"wrong-password",
		"login a@example.com",
		"secret1",
	))

	require.NoError(t, h.app.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "Registered and signed in as a@example.com.")
	assert.Contains(t, out, "Error: invalid email or password")
	assert.Contains(t, out, "Signed in as a@example.com.")
	require.NotNil(t, h.app.signedIn)
	assert.NotEmpty(t, h.app.signedIn.Token)
}

func TestAskPassword_Terminal(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	var gotFD int
	readPassword = func(fd int) ([]byte, error) {
		gotFD = fd
		return []byte("s3cret"), nil
	}

	out := &bytes.Buffer{}
	a := NewApp(nil, nil, Options{In: strings.NewReader(""), Out: out, PasswordFD: 7})

	pw, err := a.askPassword("Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, 7, gotFD)
	assert.Equal(t, "Password: \n", out.String())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "y\n", want: true},
		{in: "YES\n", want: true},
		{in: "n\n", want: false},
		{in: "\n", want: false},
		{in: "", want: false},
	}
	for _, tt := range tests {
		a := NewApp(nil, nil, Options{In: strings.NewReader(tt.in), Out: io.Discard})
		assert.Equal(t, tt.want, a.confirm("Delete?"), "input %q", tt.in)
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "could not fetch documents",
		describe(&gateway.RemoteError{Op: "metadata.list", Message: "could not fetch documents", Err: errors.New("eof")}))
	assert.Contains(t,
		describe(&gateway.ConsistencyWarning{Op: "remove", Key: "H/1-a.pdf", RecordID: "r", Err: errors.New("x")}),
		"out of sync")
	assert.Equal(t, "that is not available on this screen", describe(locker.ErrWrongScreen))
	assert.Equal(t, "invalid health_id: must not be empty",
		describe(&model.ValidationError{Field: "health_id", Reason: "must not be empty"}))
}
