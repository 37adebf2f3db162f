package location

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  QueryClass
	}{
		{"", ClassEmpty},
		{"   \t", ClassEmpty},
		{"my location", ClassCurrentLocation},
		{"  Current Location ", ClassCurrentLocation},
		{"MY   LOCATION", ClassCurrentLocation},
		{"my location please", ClassPlaceName},
		{"DAL-042", ClassBuildingCode},
		{"dal-thr-1a2b3c4d", ClassBuildingCode},
		{" VAST-THR-00FF00AA ", ClassBuildingCode},
		{"DAL", ClassPlaceName},
		{"DAL-", ClassPlaceName},
		{"DAL--042", ClassPlaceName},
		{"DAL-04 2", ClassPlaceName},
		{"DALE-042", ClassPlaceName},
		{"Dalhousie Road", ClassPlaceName},
		{"Swaraj Round", ClassPlaceName},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Classify(tt.query); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassifier_CustomPrefixes(t *testing.T) {
	c := NewClassifier([]string{"BLD", " "})

	if got := c.Classify("BLD-77"); got != ClassBuildingCode {
		t.Errorf("expected building code, got %s", got)
	}
	if got := c.Classify("DAL-042"); got != ClassPlaceName {
		t.Errorf("expected place name for unconfigured prefix, got %s", got)
	}
}
