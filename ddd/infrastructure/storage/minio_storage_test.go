package storage

import "testing"

func TestMirrorKeyAndContentType(t *testing.T) {
	m := NewMinioMirror(nil, "bucket", "/artifacts/")
	if got := m.key("a.y4m"); got != "artifacts/a.y4m" {
		t.Fatalf("key = %q", got)
	}
	if got := NewMinioMirror(nil, "bucket", "").key("a.y4m"); got != "a.y4m" {
		t.Fatalf("key without prefix = %q", got)
	}
	cases := map[string]string{
		"a.Y4M": "video/x-yuv4mpeg",
		"b.mp4": "video/mp4",
		"c.bin": "application/octet-stream",
		"d.pdf": "application/pdf",
		"noext": "application/octet-stream",
	}
	for name, want := range cases {
		if got := getContentTypeFromExtension(name); got != want {
			t.Errorf("%s: %s, want %s", name, got, want)
		}
	}
}
