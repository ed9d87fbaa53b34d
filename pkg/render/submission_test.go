package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.AntiForgeryToken("__RequestVerificationToken", "token123"),
		render.PageField(" PageId ", 1061),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing":                   "keep",
		"__RequestVerificationToken": "token123",
		"PageId":                     "1061",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	wantSorted := []render.HiddenField{
		{Name: "PageId", Value: "1061"},
		{Name: "__RequestVerificationToken", Value: "token123"},
		{Name: "existing", Value: "keep"},
	}
	if diff := cmp.Diff(wantSorted, render.SortedHiddenFields(merged)); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestWithHiddenPayloadDoesNotMutateDefinition(t *testing.T) {
	def := model.FormDefinition{Payload: map[string]any{"FormId": 42}}

	out := render.WithHiddenPayload(def, map[string]string{"PageId": "1061"})

	want := map[string]any{"FormId": 42, "PageId": "1061"}
	if diff := cmp.Diff(want, out.Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if _, ok := def.Payload["PageId"]; ok {
		t.Fatal("expected original payload untouched")
	}
}
