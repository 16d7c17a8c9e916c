package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/store"
)

// multipartOverhead is the slack allowed on top of MaxUploadBytes for the
// multipart envelope.
const multipartOverhead = 1 << 20

type indexPage struct {
	Title   string
	Error   string
	Formats []string
	MaxMB   int64
	Recent  []store.Record
}

type itemView struct {
	Kind    document.Kind
	Preview string
}

type pageView struct {
	Number int
	Items  []itemView
}

type resultPage struct {
	Title  string
	Record *store.Record
	Pages  []pageView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, "")
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, msg string) {
	recent, err := s.store.List(r.Context(), recentLimit)
	if err != nil {
		s.logger.Error("list extractions", "error", err)
	}
	s.render(w, status, "index", indexPage{
		Title:   "Upload",
		Error:   msg,
		Formats: s.opts.Formats,
		MaxMB:   s.opts.MaxUploadBytes >> 20,
		Recent:  recent,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.renderIndex(w, r, http.StatusRequestEntityTooLarge, "the file is larger than the upload limit")
			return
		}
		s.renderIndex(w, r, http.StatusBadRequest, "choose a file to upload")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || !s.opts.Supported(name) {
		s.renderIndex(w, r, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported file type %q", filepath.Ext(name)))
		return
	}
	if s.opts.MaxUploadBytes > 0 && header.Size > s.opts.MaxUploadBytes {
		s.renderIndex(w, r, http.StatusRequestEntityTooLarge, "the file is larger than the upload limit")
		return
	}

	tmp, err := s.saveUpload(file, name)
	if err != nil {
		s.logger.Error("save upload", "file", name, "error", err)
		s.renderIndex(w, r, http.StatusInternalServerError, "the upload could not be saved")
		return
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("remove upload", "path", tmp, "error", err)
		}
	}()

	doc, err := s.extractor.Extract(r.Context(), tmp)
	if err != nil {
		status, msg := sanitizeForClient(s.logger, err)
		s.renderIndex(w, r, status, msg)
		return
	}
	// The temp path means nothing to the user.
	doc.SourcePath = name

	rec, err := s.store.Save(r.Context(), name, doc)
	if err != nil {
		s.logger.Error("store extraction", "file", name, "error", err)
		s.renderIndex(w, r, http.StatusInternalServerError, "the extraction could not be saved")
		return
	}
	s.logger.Info("extraction stored", "id", rec.ID, "file", name, "engine", rec.Engine, "pages", rec.PageCount)
	http.Redirect(w, r, "/extractions/"+rec.ID, http.StatusSeeOther)
}

// saveUpload copies the upload into the upload dir under a random name that
// keeps the original extension, which engines use to pick a reader.
func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	dir := s.opts.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// handleExtraction serves /extractions/{id}, /extractions/{id}.json and
// /extractions/{id}.md.
func (s *Server) handleExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := ""
	for _, ext := range []string{".json", ".md"} {
		if strings.HasSuffix(id, ext) {
			id, format = strings.TrimSuffix(id, ext), ext
			break
		}
	}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		status, msg := sanitizeForClient(s.logger, err)
		http.Error(w, msg, status)
		return
	}

	switch format {
	case ".json":
		w.Header().Set("Content-Type", "application/json")
		setAttachment(w, downloadName(rec.SourceName, ".json"))
		if err := document.Encode(w, rec.Document); err != nil {
			s.logger.Error("write json download", "id", id, "error", err)
		}
	case ".md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		setAttachment(w, downloadName(rec.SourceName, ".md"))
		io.WriteString(w, document.RenderMarkdown(rec.Document))
	default:
		s.render(w, http.StatusOK, "result", resultPage{
			Title:  rec.SourceName,
			Record: rec,
			Pages:  pageViews(rec.Document),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var sb strings.Builder
	if err := s.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		s.logger.Error("render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, sb.String())
}

// downloadName derives "<stem>_extracted<ext>" from the uploaded file name.
func downloadName(source, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if stem == "" || stem == "." {
		stem = "document"
	}
	return stem + "_extracted" + ext
}

func setAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

func pageViews(d *document.ExtractedDocument) []pageView {
	out := make([]pageView, 0, len(d.Pages))
	for _, p := range d.Pages {
		pv := pageView{Number: p.Number}
		for _, it := range p.Items {
			pv.Items = append(pv.Items, itemView{Kind: it.Kind, Preview: preview(it.Text, previewLen)})
		}
		out = append(out, pv)
	}
	return out
}

// preview shortens text to at most n runes, marking the cut with "...".
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
