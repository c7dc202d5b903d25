package link

import (
	"testing"
	"time"
)

func TestSlugPatch(t *testing.T) {
	current := "current"

	tests := []struct {
		name    string
		patch   SlugPatch
		wantSet bool
		want    *string
	}{
		{"zero value keeps slug", SlugPatch{}, false, &current},
		{"keep", KeepSlug(), false, &current},
		{"clear", ClearSlug(), true, nil},
		{"set", SetSlug("next"), true, strPtr("next")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.patch.IsSet(); got != tt.wantSet {
				t.Errorf("IsSet() = %v, want %v", got, tt.wantSet)
			}
			got := tt.patch.Apply(&current)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Apply() = %q, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("Apply() = %v, want %q", got, *tt.want)
			}
		})
	}
}

func TestSlugPatch_ApplyDoesNotAlias(t *testing.T) {
	p := SetSlug("value")
	got := p.Apply(nil)
	*got = "mutated"

	if p.Value != "value" {
		t.Errorf("patch value changed to %q", p.Value)
	}
}

func TestSlugPatch_Ptr(t *testing.T) {
	if KeepSlug().Ptr() != nil {
		t.Error("KeepSlug().Ptr() should be nil")
	}
	if ClearSlug().Ptr() != nil {
		t.Error("ClearSlug().Ptr() should be nil")
	}
	if got := SetSlug("abc").Ptr(); got == nil || *got != "abc" {
		t.Errorf("SetSlug().Ptr() = %v, want abc", got)
	}
}

func TestPatchOp_String(t *testing.T) {
	for op, want := range map[PatchOp]string{
		PatchUnset: "unset",
		PatchNull:  "null",
		PatchValue: "value",
		PatchOp(9): "invalid",
	} {
		if got := op.String(); got != want {
			t.Errorf("PatchOp(%d).String() = %q, want %q", op, got, want)
		}
	}
}

func TestLinkUpdate_IsEmpty(t *testing.T) {
	uri := "https://example.com"

	if !(LinkUpdate{}).IsEmpty() {
		t.Error("zero update should be empty")
	}
	if (LinkUpdate{Slug: ClearSlug()}).IsEmpty() {
		t.Error("clearing the slug is a change")
	}
	if (LinkUpdate{URI: &uri}).IsEmpty() {
		t.Error("setting the uri is a change")
	}
}

func TestVersionTime(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	in := time.Date(2024, 5, 1, 7, 0, 0, 999_999_999, zone)

	got := VersionTime(in)
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("VersionTime() = %v, want %v", got, want)
	}
}

func TestNextVersion(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		prev time.Time
		now  time.Time
		want time.Time
	}{
		{"clock ahead", base, base.Add(time.Minute), base.Add(time.Minute)},
		{"same second", base, base.Add(400 * time.Millisecond), base.Add(time.Second)},
		{"clock behind", base, base.Add(-time.Hour), base.Add(time.Second)},
		{"exactly one second later", base, base.Add(time.Second), base.Add(time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextVersion(tt.prev, tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("NextVersion() = %v, want %v", got, tt.want)
			}
			if !got.After(tt.prev) {
				t.Errorf("NextVersion() = %v is not after %v", got, tt.prev)
			}
		})
	}
}

func TestLink_Version(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := Link{CreatedAt: at.Add(-time.Hour), UpdatedAt: at}

	if !l.Version().Equal(at) {
		t.Errorf("Version() = %v, want %v", l.Version(), at)
	}
}

func strPtr(s string) *string { return &s }
