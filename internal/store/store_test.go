package store

import (
	"context"
	"os"
	"testing"

	"geodata/internal/logger"
	"geodata/internal/migrate"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func TestUpsertRejectsInvalidJSON(t *testing.T) {
	s := AttachDB(nil)
	if err := s.UpsertDocument(context.Background(), "countries.json", []byte(`[{`)); err == nil {
		t.Fatal("UpsertDocument accepted malformed JSON")
	}
}

// 需要可写的 PostgreSQL：GEO_TEST_PG_DSN=postgres://...
func TestDocumentRoundTrip(t *testing.T) {
	dsn := os.Getenv("GEO_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("GEO_TEST_PG_DSN not set")
	}
	s, err := Open(dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := migrate.EnsureSchema(s.DB()); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := "Testland-TL/states.json"
	if err := s.UpsertDocument(ctx, key, []byte(`[{"name":"North","iso2":"NO"}]`)); err != nil {
		t.Fatal(err)
	}
	b, ok, err := s.Document(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Document = %v, %v", ok, err)
	}
	if len(b) == 0 {
		t.Error("empty body")
	}
	if _, ok, err := s.Document(ctx, "Nowhere-NW/states.json"); err != nil || ok {
		t.Errorf("missing Document = %v, %v", ok, err)
	}
	if n, err := s.CountDocuments(ctx); err != nil || n == 0 {
		t.Errorf("CountDocuments = %d, %v", n, err)
	}
	if _, err := s.DeleteMissing(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Document(ctx, key); ok {
		t.Error("DeleteMissing kept a document outside the keep set")
	}
}
