package recognize

import "testing"

func TestRenderTextCJKSpacing(t *testing.T) {
	got := RenderText([]string{"你", "好"})
	if got != "你好" {
		t.Fatalf("got %q, want %q", got, "你好")
	}
}

func TestRenderTextEnglishPreservesSpaces(t *testing.T) {
	got := RenderText([]string{"A", "B", "C", "D", "E", "F", "G", "H"})
	if got != "A B C D E F G H" {
		t.Fatalf("got %q, want %q", got, "A B C D E F G H")
	}
}

func TestRenderTextSubwordMarker(t *testing.T) {
	got := RenderText([]string{"un@@", "believ@@", "able"})
	if got != "unbelievable" {
		t.Fatalf("got %q, want %q", got, "unbelievable")
	}
}

func TestRenderTextIdempotent(t *testing.T) {
	tokens := []string{"你", "好", "A", "B"}
	first := RenderText(tokens)
	second := RenderText(tokens)
	if first != second {
		t.Fatalf("render not pure: %q vs %q", first, second)
	}
}

func TestStripTrailingPuncIdempotent(t *testing.T) {
	in := "hello, world,,,"
	once := StripTrailingPunc(in, ",")
	twice := StripTrailingPunc(once, ",")
	if once != twice {
		t.Fatalf("strip not idempotent: %q vs %q", once, twice)
	}
	if once != "hello, world" {
		t.Fatalf("got %q", once)
	}
}
