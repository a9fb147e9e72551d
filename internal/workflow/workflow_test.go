package workflow

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digilocker/internal/model"
)

type fakeUploader struct {
	calls []string
	fail  map[string]error
}

func (f *fakeUploader) Upload(_ context.Context, id model.Identifier, file model.FileHandle) (*model.DocumentRecord, error) {
	f.calls = append(f.calls, file.Name)
	if err := f.fail[file.Name]; err != nil {
		return nil, err
	}
	return &model.DocumentRecord{ID: "rec-" + file.Name, HealthID: id, Filename: file.Name}, nil
}

type fakeRefresher struct {
	ids []model.Identifier
	err error
}

func (f *fakeRefresher) Refresh(_ context.Context, id model.Identifier) error {
	f.ids = append(f.ids, id)
	return f.err
}

func files(names ...string) []model.FileHandle {
	out := make([]model.FileHandle, len(names))
	for i, n := range names {
		out[i] = model.FileHandle{Name: n, Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("x")), nil
		}}
	}
	return out
}

func TestSelectFiles_Limit(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{name: "none", count: 0},
		{name: "one", count: 1},
		{name: "five", count: 5},
		{name: "six", count: 6, wantErr: true},
		{name: "ten", count: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(&fakeUploader{}, nil, 0, nil)
			require.NoError(t, w.SelectFiles(files("prev.pdf")))

			names := make([]string, tt.count)
			for i := range names {
				names[i] = "f.pdf"
			}
			err := w.SelectFiles(files(names...))

			assert.Equal(t, Idle, w.State())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBatchTooLarge)
				assert.ErrorIs(t, err, model.ErrValidation)
				require.Len(t, w.Batch(), 1, "previous batch untouched")
				assert.Equal(t, "prev.pdf", w.Batch()[0].Name)
				return
			}
			assert.NoError(t, err)
			assert.Len(t, w.Batch(), tt.count)
		})
	}
}

func TestSubmit_Preconditions(t *testing.T) {
	up := &fakeUploader{}
	w := New(up, nil, 0, nil)

	_, err := w.Submit(context.Background(), "H1")
	var pe *PreconditionError
	assert.ErrorAs(t, err, &pe)

	require.NoError(t, w.SelectFiles(files("a.pdf")))
	_, err = w.Submit(context.Background(), "")
	assert.ErrorAs(t, err, &pe)

	assert.Empty(t, up.calls)
	assert.Len(t, w.Batch(), 1)
	assert.Equal(t, Idle, w.State())
}

func TestSubmit_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("storage rejected file")
	up := &fakeUploader{fail: map[string]error{"b.pdf": boom}}
	ref := &fakeRefresher{}
	w := New(up, ref, 0, nil)

	require.NoError(t, w.SelectFiles(files("a.pdf", "b.pdf", "c.pdf")))
	res, err := w.Submit(context.Background(), "H1")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, up.calls, "selection order")
	require.Len(t, res.Outcomes, 3)
	assert.NoError(t, res.Outcomes[0].Err)
	assert.ErrorIs(t, res.Outcomes[1].Err, boom)
	assert.Nil(t, res.Outcomes[1].Record)
	assert.NoError(t, res.Outcomes[2].Err)
	assert.Equal(t, 2, res.Succeeded())
	assert.Equal(t, 1, res.Failed())

	assert.Equal(t, Done, w.State())
	assert.Empty(t, w.Batch())
	assert.Equal(t, []model.Identifier{"H1"}, ref.ids)
}

func TestSubmit_RefreshFailureIsReported(t *testing.T) {
	ref := &fakeRefresher{err: errors.New("list failed")}
	w := New(&fakeUploader{}, ref, 0, nil)

	require.NoError(t, w.SelectFiles(files("a.pdf")))
	res, err := w.Submit(context.Background(), "H1")
	require.NoError(t, err)
	assert.Error(t, res.RefreshErr)
	assert.Equal(t, 1, res.Succeeded())
}

func TestSelectFiles_AfterDone(t *testing.T) {
	w := New(&fakeUploader{}, nil, 2, nil)
	require.NoError(t, w.SelectFiles(files("a.pdf")))
	_, err := w.Submit(context.Background(), "H1")
	require.NoError(t, err)
	require.Equal(t, Done, w.State())

	require.NoError(t, w.SelectFiles(files("b.pdf", "c.pdf")))
	assert.Equal(t, Idle, w.State())
	assert.ErrorIs(t, w.SelectFiles(files("1", "2", "3")), ErrBatchTooLarge)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uploading", Uploading.String())
	assert.Equal(t, "State(9)", State(9).String())
}
