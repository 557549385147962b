package codes

import "testing"

func TestRelatedGenres_KnownCodesOnly(t *testing.T) {
	for code, related := range relatedGenres {
		if _, ok := genreNames[code]; !ok {
			t.Errorf("similarity graph key %s has no display name", code)
		}
		for _, r := range related {
			if _, ok := genreNames[r]; !ok {
				t.Errorf("%s relates to unknown genre %s", code, r)
			}
			if r == code {
				t.Errorf("%s relates to itself", code)
			}
		}
	}
	if got := RelatedGenres("ZZZZ"); len(got) != 0 {
		t.Errorf("unknown genre should have no related genres, got %v", got)
	}
}

func TestRelatedGenres_ReturnsCopy(t *testing.T) {
	got := RelatedGenres(GenreTheater)
	got[0] = "XXXX"
	if RelatedGenres(GenreTheater)[0] != GenreMusical {
		t.Error("RelatedGenres must not expose the shared table")
	}
}

func TestSimilarGenreNames(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"연극", "뮤지컬", true},
		{"뮤지컬", "연극", true},
		{"서양음악(클래식)", "한국음악(국악)", true},
		{"무용(서양/한국무용)", "대중무용", true},
		{"무용", "대중무용", true},
		{"복합", "서커스/마술", true},
		{"연극", "대중음악", false},
		{"", "연극", false},
	}
	for _, tt := range tests {
		if got := SimilarGenreNames(tt.a, tt.b); got != tt.want {
			t.Errorf("SimilarGenreNames(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegionLookups(t *testing.T) {
	if ProvinceOf("1168") != "11" {
		t.Errorf("ProvinceOf(1168) = %s", ProvinceOf("1168"))
	}
	if ProvinceOf("") != "" {
		t.Error("ProvinceOf empty should be empty")
	}
	if name, ok := DistrictName("1168"); !ok || name != "강남구" {
		t.Errorf("DistrictName(1168) = %s, %v", name, ok)
	}
	if got := RegionLabel("1168"); got != "서울특별시 강남구" {
		t.Errorf("RegionLabel(1168) = %s", got)
	}
	if got := RegionLabel("26"); got != "부산광역시" {
		t.Errorf("RegionLabel(26) = %s", got)
	}
	if got := RegionLabel("99"); got != "99" {
		t.Errorf("RegionLabel(99) = %s", got)
	}
}
