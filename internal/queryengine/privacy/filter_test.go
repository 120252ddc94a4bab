package privacy

import (
	"math/rand"
	"testing"

	"lifequery/internal/models"
)

func randomPolicy(rng *rand.Rand) models.SharingPolicy {
	return models.SharingPolicy{
		Health:     rng.Intn(2) == 1,
		Location:   rng.Intn(2) == 1,
		Activities: rng.Intn(2) == 1,
		Voice:      rng.Intn(2) == 1,
		Photos:     rng.Intn(2) == 1,
		Diary:      rng.Intn(2) == 1,
	}
}

func TestEffectiveSharing_IsIntersection(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		circle := randomPolicy(rng)
		friend := randomPolicy(rng)
		effective := EffectiveSharing(circle, friend)

		checks := []struct {
			name                      string
			circleOK, friendOK, gotOK bool
		}{
			{"health", circle.Health, friend.Health, effective.Health},
			{"location", circle.Location, friend.Location, effective.Location},
			{"activities", circle.Activities, friend.Activities, effective.Activities},
			{"voice", circle.Voice, friend.Voice, effective.Voice},
			{"photos", circle.Photos, friend.Photos, effective.Photos},
			{"diary", circle.Diary, friend.Diary, effective.Diary},
		}
		for _, c := range checks {
			if c.gotOK != (c.circleOK && c.friendOK) {
				t.Fatalf("iteration %d, category %s: got %v, want %v && %v",
					i, c.name, c.gotOK, c.circleOK, c.friendOK)
			}
			if c.gotOK && (!c.circleOK || !c.friendOK) {
				t.Fatalf("iteration %d, category %s: effective permission exceeds a denial", i, c.name)
			}
		}
	}
}

func TestAllows_UnknownDataTypeDenied(t *testing.T) {
	allOn := models.SharingPolicy{
		Health: true, Location: true, Activities: true,
		Voice: true, Photos: true, Diary: true,
	}
	if Allows(allOn, models.DataType("genome")) {
		t.Error("unknown data type must be denied even under a fully open policy")
	}
	if Allows(allOn, "") {
		t.Error("empty data type must be denied")
	}
}

func TestAllows_CategoryMapping(t *testing.T) {
	tests := []struct {
		dataType models.DataType
		policy   models.SharingPolicy
	}{
		{models.DataTypeHealth, models.SharingPolicy{Health: true}},
		{models.DataTypeLocation, models.SharingPolicy{Location: true}},
		{models.DataTypeSharedActivity, models.SharingPolicy{Activities: true}},
		{models.DataTypeVoice, models.SharingPolicy{Voice: true}},
		{models.DataTypePhoto, models.SharingPolicy{Photos: true}},
		{models.DataTypeText, models.SharingPolicy{Diary: true}},
	}

	for _, tt := range tests {
		if !Allows(tt.policy, tt.dataType) {
			t.Errorf("Allows(%+v, %q) = false, want true", tt.policy, tt.dataType)
		}
		if Allows(models.SharingPolicy{}, tt.dataType) {
			t.Errorf("Allows(zero policy, %q) = true, want false", tt.dataType)
		}
	}
}

func TestAllowedDataTypes_StableOrder(t *testing.T) {
	policy := models.SharingPolicy{Health: true, Photos: true, Diary: true}
	got := AllowedDataTypes(policy)
	want := []models.DataType{models.DataTypeHealth, models.DataTypePhoto, models.DataTypeText}
	if len(got) != len(want) {
		t.Fatalf("AllowedDataTypes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AllowedDataTypes = %v, want %v", got, want)
		}
	}
	if types := AllowedDataTypes(models.SharingPolicy{}); len(types) != 0 {
		t.Errorf("zero policy should permit nothing, got %v", types)
	}
}

func TestFilterFragments_ViewerNeverFiltered(t *testing.T) {
	circle := &models.Circle{ID: "c1", DataSharing: models.SharingPolicy{}}
	fragments := []models.RetrievedFragment{
		{ID: "f1", OwnerUserID: "viewer", DataType: models.DataTypeHealth},
		{ID: "f2", OwnerUserID: "viewer", DataType: models.DataTypeVoice},
	}

	kept := FilterFragments("viewer", circle, nil, fragments)
	if len(kept) != 2 {
		t.Fatalf("viewer's own fragments filtered: kept %d of 2", len(kept))
	}
}

func TestFilterFragments_AbsentConsentDenies(t *testing.T) {
	circle := &models.Circle{
		ID:          "c1",
		DataSharing: models.SharingPolicy{Health: true, Location: true},
	}
	fragments := []models.RetrievedFragment{
		{ID: "f1", OwnerUserID: "alice", DataType: models.DataTypeHealth},
		{ID: "f2", OwnerUserID: "bob", DataType: models.DataTypeHealth},
	}
	settings := map[string]models.FriendPrivacySettings{
		"alice": {Health: true},
		// bob has no settings row.
	}

	kept := FilterFragments("viewer", circle, settings, fragments)
	if len(kept) != 1 || kept[0].ID != "f1" {
		t.Fatalf("kept = %v, want only f1", kept)
	}
}

func TestFilterFragments_CircleDenialOverridesConsent(t *testing.T) {
	circle := &models.Circle{ID: "c1", DataSharing: models.SharingPolicy{Health: true}}
	fragments := []models.RetrievedFragment{
		{ID: "f1", OwnerUserID: "alice", DataType: models.DataTypeLocation},
	}
	settings := map[string]models.FriendPrivacySettings{
		"alice": {Location: true},
	}

	if kept := FilterFragments("viewer", circle, settings, fragments); len(kept) != 0 {
		t.Fatalf("circle denies location; kept = %v", kept)
	}
}

func TestFilterFragments_DoesNotMutateInput(t *testing.T) {
	circle := &models.Circle{ID: "c1", DataSharing: models.SharingPolicy{Health: true}}
	fragments := []models.RetrievedFragment{
		{ID: "f1", OwnerUserID: "alice", DataType: models.DataTypeVoice},
		{ID: "f2", OwnerUserID: "alice", DataType: models.DataTypeHealth},
	}
	settings := map[string]models.FriendPrivacySettings{"alice": {Health: true}}

	FilterFragments("viewer", circle, settings, fragments)
	if fragments[0].ID != "f1" || fragments[1].ID != "f2" {
		t.Error("input slice was reordered")
	}
}
