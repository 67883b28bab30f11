package library

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreate(t *testing.T, l *Library, e Entry) int64 {
	t.Helper()
	id, err := l.CreateEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateEntry(%q) failed: %v", e.Name, err)
	}
	return id
}

// buildTree creates:
//
//	root (folder)
//	├── Stories (folder)
//	│   ├── chapter1 (file)      sort_key 1
//	│   └── chapter2 (file)      sort_key 2
//	├── Radio (stream)           sort_key 2
//	└── Mix (spotify playlist)   sort_key 3
func buildTree(t *testing.T, l *Library) (rootID int64) {
	t.Helper()
	ctx := context.Background()
	_ = ctx

	rootID = mustCreate(t, l, Entry{Variant: VariantFolder, Name: "root", SortKey: 1})
	storiesID := mustCreate(t, l, Entry{
		ParentID: &rootID, Variant: VariantFolder, Name: "Stories", SortKey: 1,
	})
	mustCreate(t, l, Entry{
		ParentID: &storiesID, Variant: VariantFile, Name: "chapter1", SortKey: 1,
		Source: &TrackSource{Title: "chapter1.mp3"},
	})
	mustCreate(t, l, Entry{
		ParentID: &storiesID, Variant: VariantFile, Name: "chapter2", SortKey: 2,
		Source: &TrackSource{Title: "chapter2.mp3"},
	})
	mustCreate(t, l, Entry{
		ParentID: &rootID, Variant: VariantStream, Name: "Radio", SortKey: 2,
		Source: &TrackSource{Title: "Radio", URL: "http://radio.example/stream"},
	})
	mustCreate(t, l, Entry{
		ParentID: &rootID, Variant: VariantSpotify, Name: "Mix", SortKey: 3,
		Source: &TrackSource{Title: "Mix", SpotifyID: "37i9dQZF1DXcBWIGoYBM5M", SpotifyType: "playlist"},
	})
	return rootID
}

func TestNode_ReturnsChildrenInSortOrder(t *testing.T) {
	l := New(setupTestDB(t))
	rootID := buildTree(t, l)

	node, err := l.Node(context.Background(), rootID)
	if err != nil {
		t.Fatalf("Node() failed: %v", err)
	}
	if node.Name != "root" {
		t.Errorf("Name = %q, want root", node.Name)
	}
	if len(node.Children) != 3 {
		t.Fatalf("len(Children) = %d, want 3", len(node.Children))
	}

	wantNames := []string{"Stories", "Radio", "Mix"}
	for i, want := range wantNames {
		if node.Children[i].Name != want {
			t.Errorf("Children[%d].Name = %q, want %q", i, node.Children[i].Name, want)
		}
	}
	if node.Children[1].Source == nil || node.Children[1].Source.URL != "http://radio.example/stream" {
		t.Errorf("stream child missing track source: %+v", node.Children[1].Source)
	}
	if node.Children[0].Source != nil {
		t.Error("folder child should not carry a track source")
	}
}

func TestNode_NotFound(t *testing.T) {
	l := New(setupTestDB(t))

	_, err := l.Node(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTracksInParent_FlattensDepthFirstSkippingFolders(t *testing.T) {
	l := New(setupTestDB(t))
	rootID := buildTree(t, l)

	entries, err := l.TracksInParent(context.Background(), rootID)
	if err != nil {
		t.Fatalf("TracksInParent() failed: %v", err)
	}

	// Stories folder (sort_key 1) is skipped but its children come first,
	// in their own sort order, before the root-level Radio and Mix.
	wantNames := []string{"chapter1", "chapter2", "Radio", "Mix"}
	if len(entries) != len(wantNames) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantNames))
	}
	for i, want := range wantNames {
		if entries[i].Name != want {
			t.Errorf("entries[%d].Name = %q, want %q", i, entries[i].Name, want)
		}
		if entries[i].Variant == VariantFolder {
			t.Errorf("entries[%d] is a folder, folders must be flattened away", i)
		}
		if entries[i].Source == nil {
			t.Errorf("entries[%d] has no track source", i)
		}
	}
	if entries[0].ParentName != "Stories" {
		t.Errorf("entries[0].ParentName = %q, want Stories", entries[0].ParentName)
	}
}

func TestTracksInParent_EmptyFolder(t *testing.T) {
	l := New(setupTestDB(t))
	id := mustCreate(t, l, Entry{Variant: VariantFolder, Name: "empty"})

	entries, err := l.TracksInParent(context.Background(), id)
	if err != nil {
		t.Fatalf("TracksInParent() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestMarkPlayed(t *testing.T) {
	l := New(setupTestDB(t))
	rootID := buildTree(t, l)

	entries, err := l.TracksInParent(context.Background(), rootID)
	if err != nil {
		t.Fatalf("TracksInParent() failed: %v", err)
	}
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	if err := l.MarkPlayed(context.Background(), entries[0].ID, at); err != nil {
		t.Fatalf("MarkPlayed() failed: %v", err)
	}

	refreshed, err := l.Node(context.Background(), entries[0].ID)
	if err != nil {
		t.Fatalf("Node() failed: %v", err)
	}
	if refreshed.PlayedAt == nil || !refreshed.PlayedAt.Equal(at) {
		t.Errorf("PlayedAt = %v, want %v", refreshed.PlayedAt, at)
	}

	if err := l.MarkPlayed(context.Background(), 9999, at); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkPlayed(missing) = %v, want ErrNotFound", err)
	}
}

func TestFileBytes(t *testing.T) {
	l := New(setupTestDB(t))
	rootID := buildTree(t, l)

	entries, err := l.TracksInParent(context.Background(), rootID)
	if err != nil {
		t.Fatalf("TracksInParent() failed: %v", err)
	}
	sourceID := entries[0].Source.ID

	// No blob stored yet.
	if _, err := l.FileBytes(context.Background(), sourceID); !errors.Is(err, ErrNoFile) {
		t.Errorf("FileBytes(no blob) = %v, want ErrNoFile", err)
	}

	blob := []byte{0xFF, 0xFB, 0x90, 0x00, 0x01, 0x02}
	if err := l.SetFileBytes(context.Background(), sourceID, blob); err != nil {
		t.Fatalf("SetFileBytes() failed: %v", err)
	}

	got, err := l.FileBytes(context.Background(), sourceID)
	if err != nil {
		t.Fatalf("FileBytes() failed: %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("FileBytes() = %v, want %v", got, blob)
	}

	if _, err := l.FileBytes(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("FileBytes(missing) = %v, want ErrNotFound", err)
	}
}

func TestVariant_Playable(t *testing.T) {
	tests := []struct {
		variant Variant
		want    bool
	}{
		{VariantFolder, false},
		{VariantFile, true},
		{VariantStream, true},
		{VariantSpotify, true},
	}
	for _, tt := range tests {
		if got := tt.variant.Playable(); got != tt.want {
			t.Errorf("%s.Playable() = %v, want %v", tt.variant, got, tt.want)
		}
	}
}
