package locker

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digilocker/internal/gateway"
	"digilocker/internal/identity"
	"digilocker/internal/listing"
	"digilocker/internal/model"
	"digilocker/internal/navigator"
	"digilocker/internal/repository/inmemory"
	"digilocker/internal/storage"
)

// flakyStorage fails Put for keys ending in one of the listed file names.
type flakyStorage struct {
	*storage.Memory
	failOn []string
}

func (f *flakyStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	for _, name := range f.failOn {
		if strings.HasSuffix(key, "-"+name) {
			return storage.ObjectInfo{}, errors.New("payload rejected")
		}
	}
	return f.Memory.Put(ctx, key, r, opt)
}

type fixture struct {
	session *Session
	slot    *identity.MemorySlot
	store   *flakyStorage
	gw      gateway.Gateway
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	db, err := inmemory.New()
	require.NoError(t, err)
	store := &flakyStorage{Memory: storage.NewMemory()}

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gw := gateway.New(store, db.Documents(), gateway.URLScheme{BaseURL: "http://files.test", Bucket: "reports"}, gateway.Options{
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})

	i := 0
	gen := func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
	slot := &identity.MemorySlot{}
	return &fixture{
		session: NewSession(identity.New(slot, gen), gw, Options{}),
		slot:    slot,
		store:   store,
		gw:      gw,
	}
}

func file(name, content string) model.FileHandle {
	return model.FileHandle{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

func names(recs []model.DocumentRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Filename
	}
	return out
}

func TestSession_IdentitySwitchIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "H1", "H2")
	s := f.session

	h1, err := s.GenerateIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Identifier("H1"), h1)
	assert.Equal(t, navigator.Upload, s.Screen())

	require.NoError(t, s.SelectFiles([]model.FileHandle{file("a.pdf", "%PDF-1.7")}))
	res, err := s.Upload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded())

	require.NoError(t, s.ShowSummary(ctx))
	assert.Equal(t, []string{"a.pdf"}, names(s.Documents()))

	require.NoError(t, s.SwitchIdentity())
	assert.Empty(t, s.Documents())
	h2, err := s.GenerateIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Identifier("H2"), h2)
	require.NoError(t, s.ShowSummary(ctx))
	assert.Empty(t, s.Documents())

	require.NoError(t, s.SwitchIdentity())
	_, err = s.AdoptIdentity(ctx, " H1 ")
	require.NoError(t, err)
	require.NoError(t, s.ShowSummary(ctx))
	docs := s.Documents()
	assert.Equal(t, []string{"a.pdf"}, names(docs))
	for _, d := range docs {
		assert.Equal(t, model.Identifier("H1"), d.HealthID)
	}

	v, _, _ := f.slot.Load(ctx)
	assert.Equal(t, "H1", v)
}

func TestSession_PartialBatchFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "H1")
	f.store.failOn = []string{"b.pdf"}
	s := f.session

	_, err := s.GenerateIdentity(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SelectFiles([]model.FileHandle{
		file("a.pdf", "%PDF a"),
		file("b.pdf", "%PDF b"),
		file("c.pdf", "%PDF c"),
	}))

	res, err := s.Upload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded())
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, "b.pdf", res.Outcomes[1].Name)
	var re *gateway.RemoteError
	assert.ErrorAs(t, res.Outcomes[1].Err, &re)

	assert.ElementsMatch(t, []string{"a.pdf", "c.pdf"}, names(s.Documents()))
	assert.Empty(t, s.Selected())
}

func TestSession_RoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "H1")
	s := f.session

	_, err := s.GenerateIdentity(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SelectFiles([]model.FileHandle{file("scan.pdf", "%PDF bytes")}))
	_, err = s.Upload(ctx)
	require.NoError(t, err)

	docs := s.Documents()
	require.Len(t, docs, 1)

	rc, _, err := s.Open(ctx, docs[0])
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF bytes", string(b))

	link, err := s.Link(ctx, docs[0], time.Minute)
	require.NoError(t, err)
	assert.Equal(t, docs[0].FileURL, link)

	require.NoError(t, s.Delete(ctx, docs[0]))
	assert.Empty(t, s.Documents())
	assert.Empty(t, f.store.Keys())

	err = s.Delete(ctx, docs[0])
	assert.Error(t, err, "deleting twice is a signalled failure")
}

// listOutage fails List while down is set.
type listOutage struct {
	gateway.Gateway
	down bool
}

func (l *listOutage) List(ctx context.Context, id model.Identifier) ([]model.DocumentRecord, error) {
	if l.down {
		return nil, &gateway.RemoteError{Op: "metadata.list", Message: "could not fetch documents", Err: errors.New("timeout")}
	}
	return l.Gateway.List(ctx, id)
}

func TestSession_DeleteWithStaleListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "H1")
	gw := &listOutage{Gateway: f.gw}
	s := NewSession(identity.New(f.slot, func() string { return "H1" }), gw, Options{})

	_, err := s.GenerateIdentity(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SelectFiles([]model.FileHandle{file("a.pdf", "%PDF-a"), file("b.pdf", "%PDF-b")}))
	_, err = s.Upload(ctx)
	require.NoError(t, err)
	require.Len(t, s.Documents(), 2)

	gw.down = true
	target := s.Documents()[0]
	err = s.Delete(ctx, target)

	var stale *listing.StaleError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, target.ID, stale.RecordID)
	assert.Len(t, f.store.Keys(), 1, "the object is gone")
	require.Len(t, s.Documents(), 1)
	assert.NotEqual(t, target.ID, s.Documents()[0].ID)
}

func TestSession_StartRestoresIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "unused")
	require.NoError(t, f.slot.Save(ctx, "H9"))

	_, err := f.gw.Upload(ctx, "H9", file("old.pdf", "%PDF"))
	require.NoError(t, err)

	ok, err := f.session.Start(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, navigator.Upload, f.session.Screen())
	assert.Equal(t, []string{"old.pdf"}, names(f.session.Documents()))
}

func TestSession_StartWithoutIdentity(t *testing.T) {
	f := newFixture(t, "H1")
	ok, err := f.session.Start(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, navigator.Init, f.session.Screen())
}

func TestSession_ScreenGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "H1")
	s := f.session

	assert.ErrorIs(t, s.SelectFiles(nil), ErrWrongScreen)
	_, err := s.Upload(ctx)
	assert.ErrorIs(t, err, ErrWrongScreen)
	assert.ErrorIs(t, s.ShowSummary(ctx), navigator.ErrInvalidTransition)
	assert.ErrorIs(t, s.Refresh(ctx), ErrNoIdentity)

	_, err = s.AdoptIdentity(ctx, "   ")
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, navigator.Init, s.Screen())

	_, err = s.GenerateIdentity(ctx)
	require.NoError(t, err)
	_, err = s.GenerateIdentity(ctx)
	assert.ErrorIs(t, err, ErrWrongScreen)

	err = s.Delete(ctx, model.DocumentRecord{ID: "x", HealthID: "H2"})
	assert.ErrorIs(t, err, ErrForeignRecord)
}

func TestSession_OversizedSelectionKeepsBatch(t *testing.T) {
	f := newFixture(t, "H1")
	s := f.session
	_, err := s.GenerateIdentity(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.SelectFiles([]model.FileHandle{file("keep.pdf", "x")}))
	six := make([]model.FileHandle, 6)
	for i := range six {
		six[i] = file("f.pdf", "x")
	}
	assert.Error(t, s.SelectFiles(six))
	require.Len(t, s.Selected(), 1)
	assert.Equal(t, "keep.pdf", s.Selected()[0].Name)
}
