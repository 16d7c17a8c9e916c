package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDoc(src string) *document.ExtractedDocument {
	return document.New(src, "layout", []document.Page{
		{Number: 1, Items: []document.ContentItem{
			{Kind: document.KindTitle, Text: "Report"},
			{Kind: document.KindTable, Text: "a,b", TableData: [][]string{{"a", "b"}}},
		}},
		{Number: 2, Items: []document.ContentItem{{Kind: document.KindText, Text: "end"}}},
	})
}

func TestSaveGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Save(ctx, "report.pdf", testDoc("/tmp/abc.pdf"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID == "" || rec.PageCount != 2 || rec.ItemCount != 3 || rec.Engine != "layout" {
		t.Errorf("saved record = %+v", rec)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SourceName != "report.pdf" || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}
	if got.Document.SourcePath != "/tmp/abc.pdf" || got.Document.Pages[0].Items[1].TableData[0][1] != "b" {
		t.Errorf("document = %+v", got.Document)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"not-a-uuid", "0b6b2f3e-3f55-4c43-9c1f-6a3d2f9b1c11"} {
		if _, err := s.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		rec, err := s.Save(ctx, name, testDoc(name))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, rec.ID)
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("List order = %+v", all)
	}
	if all[0].Document != nil {
		t.Error("List should not load documents")
	}

	two, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 || two[1].SourceName != "b.pdf" {
		t.Errorf("List(2) = %+v", two)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec, err := s.Save(ctx, "x.txt", testDoc("x.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v", err)
	}
	if err := s.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestOpen_PersistsAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s1, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := s1.Save(ctx, "p.md", testDoc("p.md"))
	if err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.Get(ctx, rec.ID); err != nil {
		t.Errorf("reopened Get: %v", err)
	}
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"), nil)
	if err == nil {
		t.Error("expected an error opening a database in a missing directory")
	}
}
