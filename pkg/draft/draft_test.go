package draft_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aretw0/govform/pkg/adapters/memory"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/draft"
	"github.com/aretw0/govform/pkg/ports/mocks"
)

func filledForm() domain.FormData {
	f := domain.NewFormData()
	f.FullName = "Jane Doe"
	f.Email = "jane@example.gov"
	f.City = "Springfield"
	f.UrgencyLevel = domain.UrgencyUrgent
	f.TermsAccepted = true
	f.Documents = []domain.Document{
		{ID: "doc_1", Name: "passport.pdf", File: &domain.File{Name: "passport.pdf", MediaType: "application/pdf", Size: 10, Data: []byte("x")}, Preview: "preview:doc_1"},
		{ID: "doc_2", Name: "photo.png"},
	}
	return f
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := draft.New(memory.NewStore(), "s1")

	original := filledForm()
	require.NoError(t, store.Save(ctx, original, domain.StepService))

	got, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)

	want := original.Clone()
	want.Documents = []domain.Document{{ID: "doc_1", Name: "passport.pdf"}, {ID: "doc_2", Name: "photo.png"}}

	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Errorf("restored form mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.StepService, got.Step)
	assert.NotNil(t, original.Documents[0].File, "saving must not mutate the caller's data")
}

func TestStore_SlotLayout(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewStore()

	require.NoError(t, draft.New(slots, "").Save(ctx, domain.NewFormData(), domain.StepAddress))

	step, err := slots.Get(ctx, "govFormStep")
	require.NoError(t, err)
	assert.Equal(t, "1", step)

	raw, err := slots.Get(ctx, "govFormData")
	require.NoError(t, err)
	assert.Contains(t, raw, `"urgencyLevel":"normal"`)
}

func TestStore_LoadEdgeCases(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		form      *string
		step      *string
		wantFound bool
		wantStep  domain.Step
	}{
		{name: "no draft", wantFound: false},
		{name: "missing step", form: ptr(`{"city":"x"}`), wantFound: true, wantStep: 0},
		{name: "garbage step", form: ptr(`{"city":"x"}`), step: ptr("two"), wantFound: true, wantStep: 0},
		{name: "step too large", form: ptr(`{"city":"x"}`), step: ptr("9"), wantFound: true, wantStep: domain.LastStep},
		{name: "negative step", form: ptr(`{"city":"x"}`), step: ptr("-2"), wantFound: true, wantStep: domain.FirstStep},
		{name: "corrupt form", form: ptr(`{"city":`), step: ptr("2"), wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := memory.NewStore()
			if tt.form != nil {
				_ = slots.Set(ctx, "s:govFormData", *tt.form)
			}
			if tt.step != nil {
				_ = slots.Set(ctx, "s:govFormStep", *tt.step)
			}

			got, found, err := draft.New(slots, "s").Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if found {
				assert.Equal(t, tt.wantStep, got.Step)
				assert.NotNil(t, got.Data.Documents)
			}
		})
	}
}

func TestStore_MissingFieldsKeepDefaults(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewStore()
	_ = slots.Set(ctx, "s:govFormData", `{"fullName":"Jane"}`)

	got, found, err := draft.New(slots, "s").Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Jane", got.Data.FullName)
	assert.Equal(t, domain.UrgencyUnset, got.Data.UrgencyLevel)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewStore()
	store := draft.New(slots, "s")

	require.NoError(t, store.Save(ctx, filledForm(), domain.StepDocuments))
	require.NoError(t, store.Clear(ctx))

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	keys, _ := slots.List(ctx)
	assert.Empty(t, keys)
}

func TestStore_SaveErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	slots := mocks.NewMockSlotStore(ctrl)
	boom := errors.New("quota exceeded")

	slots.EXPECT().Set(gomock.Any(), "s:govFormData", gomock.Any()).Return(boom)

	err := draft.New(slots, "s").Save(context.Background(), domain.NewFormData(), 0)
	assert.ErrorIs(t, err, boom)
}

func TestStore_LoadErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	slots := mocks.NewMockSlotStore(ctrl)
	boom := errors.New("connection reset")

	slots.EXPECT().Get(gomock.Any(), "s:govFormData").Return("", boom)

	_, found, err := draft.New(slots, "s").Load(context.Background())
	assert.False(t, found)
	assert.ErrorIs(t, err, boom)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewStore()
	_ = draft.New(slots, "a").Save(ctx, domain.NewFormData(), 0)
	_ = draft.New(slots, "b").Save(ctx, domain.NewFormData(), 0)
	_ = slots.Set(ctx, "c:govFormStep", "1")

	ids, err := draft.Sessions(ctx, slots)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func ptr(s string) *string { return &s }
