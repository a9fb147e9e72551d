package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"digilocker/internal/gateway"
	"digilocker/internal/listing"
	"digilocker/internal/locker"
	"digilocker/internal/model"
	"digilocker/internal/navigator"
	"digilocker/internal/workflow"
)

var errNoAccounts = errors.New("accounts are not available")

func (a *App) newIdentity(ctx context.Context) error {
	id, err := a.sess.GenerateIdentity(ctx)
	if err != nil {
		return err
	}
	a.printf("Your new Health ID is %s. Keep it: it is the only key to your documents.\n", id)
	a.help()
	return nil
}

func (a *App) useIdentity(ctx context.Context, candidate string) error {
	id, err := a.sess.AdoptIdentity(ctx, candidate)
	if err != nil {
		return err
	}
	a.printf("Using Health ID %s.\n", id)
	a.help()
	return nil
}

func (a *App) credentials(args []string) (string, string, error) {
	email := strings.Join(args, "")
	if email == "" {
		var err error
		if email, err = a.ask("Email"); err != nil {
			return "", "", err
		}
	}
	password, err := a.askPassword("Password")
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func (a *App) login(ctx context.Context, args []string) error {
	if a.auth == nil {
		return errNoAccounts
	}
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	sess, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	a.signedIn = sess
	a.printf("Signed in as %s.\n", sess.User.Email)
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	if a.auth == nil {
		return errNoAccounts
	}
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	sess, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	a.signedIn = sess
	a.printf("Registered and signed in as %s.\n", sess.User.Email)
	return nil
}

func (a *App) switchIdentity() error {
	if err := a.sess.SwitchIdentity(); err != nil {
		return err
	}
	a.println("Enter another Health ID or generate a new one.")
	a.help()
	return nil
}

// localFile describes a file on disk. It is opened only when its upload starts.
func localFile(path string) (model.FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.FileHandle{}, err
	}
	if info.IsDir() {
		return model.FileHandle{}, fmt.Errorf("%s is a directory", path)
	}
	return model.FileHandle{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func (a *App) selectFiles(paths []string) error {
	if len(paths) == 0 {
		return &model.ValidationError{Field: "files", Reason: "name at least one file"}
	}
	files := make([]model.FileHandle, 0, len(paths))
	for _, p := range paths {
		fh, err := localFile(p)
		if err != nil {
			return err
		}
		files = append(files, fh)
	}
	if err := a.sess.SelectFiles(files); err != nil {
		return err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	a.printf("Selected %d file(s): %s\n", len(files), strings.Join(names, ", "))
	return nil
}

func (a *App) upload(ctx context.Context) error {
	n := len(a.sess.Selected())
	if n > 0 {
		a.printf("Uploading %d file(s)...\n", n)
	}
	res, err := a.sess.Upload(ctx)
	if err != nil {
		return err
	}
	for _, o := range res.Outcomes {
		if o.Err != nil {
			a.printf("  failed  %s: %s\n", o.Name, describe(o.Err))
			continue
		}
		a.printf("  stored  %s\n", o.Name)
	}
	a.printf("Uploaded %d of %d file(s).\n", res.Succeeded(), len(res.Outcomes))
	if res.RefreshErr != nil {
		a.printf("The document list could not be refreshed: %s\n", describe(res.RefreshErr))
	}
	return nil
}

func (a *App) showSummary(ctx context.Context) error {
	err := a.sess.ShowSummary(ctx)
	if a.sess.Screen() == navigator.Summary {
		a.renderDocuments()
		a.help()
	}
	return err
}

func (a *App) backToUpload() error {
	if err := a.sess.BackToUpload(); err != nil {
		return err
	}
	a.help()
	return nil
}

func (a *App) refresh(ctx context.Context) error {
	if err := a.sess.Refresh(ctx); err != nil {
		return err
	}
	a.renderDocuments()
	return nil
}

func (a *App) renderDocuments() {
	docs := a.sess.Documents()
	if len(docs) == 0 {
		a.println("No documents uploaded yet.")
		return
	}
	a.printf("Documents for %s:\n", a.sess.Identifier())
	for i, d := range docs {
		marker := ""
		if d.IsPDF() {
			marker = "  [pdf]"
		}
		a.printf("%3d. %s  %s%s\n", i+1, d.Filename, d.UploadedAt.Local().Format("2006-01-02 15:04"), marker)
	}
}

// pick resolves a 1-based position in the current listing.
func (a *App) pick(args []string) (model.DocumentRecord, error) {
	docs := a.sess.Documents()
	if len(args) != 1 {
		return model.DocumentRecord{}, &model.ValidationError{Field: "document", Reason: "give the document number from the list"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(docs) {
		return model.DocumentRecord{}, &model.ValidationError{
			Field:  "document",
			Reason: fmt.Sprintf("%q is not a number between 1 and %d", args[0], len(docs)),
		}
	}
	return docs[n-1], nil
}

func (a *App) open(ctx context.Context, args []string) (err error) {
	rec, err := a.pick(args)
	if err != nil {
		return err
	}
	rc, _, err := a.sess.Open(ctx, rec)
	if err != nil {
		return err
	}
	defer rc.Close()

	dst := filepath.Join(a.downloadDir, gateway.BaseName(rec.Filename))
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err = io.Copy(f, rc); err != nil {
		return err
	}
	a.printf("Saved %s to %s\n", rec.Filename, dst)
	return nil
}

func (a *App) link(ctx context.Context, args []string) error {
	rec, err := a.pick(args)
	if err != nil {
		return err
	}
	url, err := a.sess.Link(ctx, rec, a.linkTTL)
	if err != nil {
		return err
	}
	a.println(url)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	rec, err := a.pick(args)
	if err != nil {
		return err
	}
	if !a.confirm(fmt.Sprintf("Delete %s?", rec.Filename)) {
		a.println("Kept.")
		return nil
	}
	err = a.sess.Delete(ctx, rec)
	var stale *listing.StaleError
	if err != nil && !errors.As(err, &stale) {
		return err
	}
	a.printf("Deleted %s.\n", rec.Filename)
	if stale != nil {
		a.println("The list could not be refreshed:", describe(stale.Err))
	}
	a.renderDocuments()
	return nil
}

// describe turns an error into a message for the user.
func describe(err error) string {
	var (
		ve *model.ValidationError
		pe *workflow.PreconditionError
		cw *gateway.ConsistencyWarning
		re *gateway.RemoteError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &pe):
		return pe.Error()
	case errors.As(err, &cw):
		return "the locker may be out of sync: " + cw.Error()
	case errors.As(err, &re):
		if re.Message != "" {
			return re.Message
		}
		return re.Error()
	case errors.Is(err, navigator.ErrInvalidTransition), errors.Is(err, locker.ErrWrongScreen):
		return "that is not available on this screen"
	}
	return err.Error()
}

func (a *App) report(err error) {
	a.println("Error:", describe(err))
}
