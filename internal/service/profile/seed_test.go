package profile

import "testing"

func TestParseProfiles(t *testing.T) {
	list, err := ParseProfiles([]byte("profiles:\n  - name: Andy\n  - name: Jaden\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[1].Name != "Jaden" {
		t.Fatalf("unexpected list: %+v", list)
	}

	single, err := ParseProfiles([]byte(`{"name": "Lan", "socialLinks": [{"platform": "zalo", "url": "0900000000"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(single) != 1 || single[0].Name != "Lan" || len(single[0].SocialLinks) != 1 {
		t.Fatalf("unexpected single profile: %+v", single)
	}

	if _, err := ParseProfiles([]byte("name: [")); err == nil {
		t.Fatalf("malformed YAML should fail")
	}
}
