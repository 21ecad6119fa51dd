package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"GrantChecker/internal/domain"
)

// Multipart field names. The second spelling of each is the legacy one.
const (
	fieldRequirementDocument = "requirementDocument"
	fieldFOADocument         = "foaDocument"
	fieldProposalPackages    = "proposalPackages"
	fieldGrantPackages       = "grantPackages"
	fieldRequirementURL      = "requirementUrl"
	fieldFOAURL              = "foaUrl"

	maxTextFieldBytes = 64 << 10
)

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// readFailure classifies a body read error. format must end with the verb
// that receives err. Hitting the request body limit is reported as 413.
func readFailure(err error, format string, args ...any) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &requestError{
			status: http.StatusRequestEntityTooLarge,
			msg:    fmt.Sprintf("request body exceeds the %d byte limit", tooLarge.Limit),
		}
	}
	return badRequest(format, append(args, err)...)
}

// storedFile is one uploaded part written to the request directory.
type storedFile struct {
	field        string
	filename     string
	originalName string
	path         string
	size         int64
}

func (f storedFile) info() fileInfo {
	return fileInfo{Filename: f.filename, OriginalName: f.originalName, Size: f.size}
}

func (f storedFile) ref() domain.DocumentRef {
	return domain.DocumentRef{Name: f.originalName, Path: f.path, Size: f.size}
}

// upload holds everything received for one request. Its directory is
// removed by cleanup.
type upload struct {
	dir         string
	locator     string
	requirement *storedFile
	proposal    []storedFile
}

func (u *upload) checkRequest() domain.CheckRequest {
	req := domain.CheckRequest{Locator: u.locator}
	if u.requirement != nil {
		ref := u.requirement.ref()
		req.RequirementDocument = &ref
	}
	for _, f := range u.proposal {
		req.Proposal = append(req.Proposal, f.ref())
	}
	return req
}

func (u *upload) requirementName() string {
	if u.requirement == nil {
		return ""
	}
	return u.requirement.originalName
}

func (u *upload) cleanup(logger *slog.Logger) {
	if u.dir == "" {
		return
	}
	if err := os.RemoveAll(u.dir); err != nil {
		logger.Warn("remove upload dir", "dir", u.dir, "error", err)
	}
}

// receive streams the multipart body into a request-scoped directory,
// enforcing the per-field counts and the per-file size cap.
func (s *Server) receive(r *http.Request) (_ *upload, err error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, badRequest("expected multipart/form-data body: %v", err)
	}

	dir, err := os.MkdirTemp(s.cfg.UploadDir, "grantchecker-*")
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	up := &upload{dir: dir}
	defer func() {
		if err != nil {
			up.cleanup(s.logger)
		}
	}()

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readFailure(err, "read multipart body: %v")
		}
		if err := s.receivePart(up, part); err != nil {
			part.Close()
			return nil, err
		}
		part.Close()
	}
	return up, nil
}

func (s *Server) receivePart(up *upload, part *multipart.Part) error {
	field := part.FormName()

	if part.FileName() == "" {
		switch field {
		case fieldRequirementURL, fieldFOAURL:
			raw, err := io.ReadAll(io.LimitReader(part, maxTextFieldBytes+1))
			if err != nil {
				return readFailure(err, "read %s: %v", field)
			}
			if len(raw) > maxTextFieldBytes {
				return badRequest("%s is too long", field)
			}
			if v := strings.TrimSpace(string(raw)); v != "" {
				up.locator = v
			}
		}
		return nil
	}

	switch field {
	case fieldRequirementDocument, fieldFOADocument:
		if up.requirement != nil {
			return badRequest("at most one requirement document is accepted")
		}
		stored, err := s.store(up.dir, field, part)
		if err != nil {
			return err
		}
		up.requirement = &stored
	case fieldProposalPackages, fieldGrantPackages:
		if len(up.proposal) >= s.cfg.MaxFiles {
			return badRequest("at most %d proposal files are accepted", s.cfg.MaxFiles)
		}
		stored, err := s.store(up.dir, field, part)
		if err != nil {
			return err
		}
		up.proposal = append(up.proposal, stored)
	default:
		return badRequest("unexpected file field %q", field)
	}
	return nil
}

// store writes a part as <field>-<uuid><ext> inside dir.
func (s *Server) store(dir, field string, part *multipart.Part) (storedFile, error) {
	original := filepath.Base(part.FileName())
	name := field + "-" + uuid.NewString() + strings.ToLower(filepath.Ext(original))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return storedFile{}, fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(part, s.cfg.MaxFileBytes+1))
	if err != nil {
		return storedFile{}, readFailure(err, "read %s: %v", original)
	}
	if n > s.cfg.MaxFileBytes {
		return storedFile{}, &requestError{
			status: http.StatusRequestEntityTooLarge,
			msg:    fmt.Sprintf("%s exceeds the %d byte limit", original, s.cfg.MaxFileBytes),
		}
	}

	return storedFile{
		field:        field,
		filename:     name,
		originalName: original,
		path:         path,
		size:         n,
	}, nil
}
