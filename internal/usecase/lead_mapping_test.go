package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

func TestResolveTrack(t *testing.T) {
	assert.Equal(t, entity.ProjectTypeMamad, ResolveTrack("mamad"))
	assert.Equal(t, entity.ProjectTypeMamad, ResolveTrack(`ממ"ד`))
	assert.Equal(t, entity.ProjectTypeRenovation, ResolveTrack(" שיפוץ "))
	assert.Equal(t, entity.ProjectTypeArchitecture, ResolveTrack("עיצוב פנים"))
	assert.Equal(t, "", ResolveTrack("pool"))
	assert.Equal(t, "", ResolveTrack(""))
}

func TestDictionaryLookup(t *testing.T) {
	assert.Equal(t, "immediate", timelineAnswers.lookup("מיידית"))
	assert.Equal(t, "1_3_months", timelineAnswers.lookup(" 1–3 חודשים "))
	// substring fallback, first entry wins
	assert.Equal(t, "valid", permitStatusAnswers.lookup("כן – היתר בתוקף עד 2026"))
	assert.Equal(t, unknownAnswer, siteAccessAnswers.lookup("בלי גישה"))
}

func TestApplyBotAnswersRenovation(t *testing.T) {
	lead := &entity.Lead{FullName: "ליד בוט"}
	applyBotAnswers(lead, entity.ProjectTypeRenovation, map[string]any{
		"timeline":       "מיידית",
		"location":       "חיפה, הרצל 10",
		"reno_type":      "שיפוץ חדרי רחצה / מטבח",
		"estimated_size": "60–120",
		"reno_has_plan":  "אין תכנית",
		"is_occupied":    "כן",
		"full_name":      " משה לוי ",
	})

	require.NotNil(t, lead.BotTrack)
	assert.Equal(t, entity.ProjectTypeRenovation, *lead.BotTrack)
	assert.Equal(t, "immediate", *lead.StartTimeline)
	assert.Equal(t, "חיפה", *lead.City)
	assert.Equal(t, "הרצל 10", *lead.Street)
	assert.Equal(t, "bath_kitchen", *lead.RenoType)
	assert.Equal(t, "60_120", *lead.EstimatedSizeBucket)
	assert.Equal(t, "none", *lead.RenoHasPlan)
	assert.Equal(t, "true", *lead.IsOccupied)
	assert.Equal(t, "משה לוי", lead.FullName)
	assert.Nil(t, lead.MamadVariant)
}

func TestApplyBotAnswersPrivateHome(t *testing.T) {
	lead := &entity.Lead{}
	applyBotAnswers(lead, entity.ProjectTypePrivateHome, map[string]any{
		"private_stage":          "בניית שלד בלבד",
		"estimated_size_bucket":  "מעל 250",
		"private_special_struct": []any{"מרתף", "בריכה וגג רעפים", "מרתף"},
		"city":                   "רעננה",
	})

	assert.Equal(t, "shell_only", *lead.PrivateStage)
	assert.Equal(t, "250_plus", *lead.EstimatedSizeBucket)
	assert.Equal(t, []string{"basement", "בריכה וגג רעפים", "pool", "roof_tiles"}, lead.PrivateSpecialStruct)
	assert.Equal(t, "רעננה", *lead.City)
	assert.Nil(t, lead.Street)
}

func TestApplyBotAnswersArchitecture(t *testing.T) {
	lead := &entity.Lead{}
	applyBotAnswers(lead, entity.ProjectTypeArchitecture, map[string]any{
		"arch_service":        "עיצוב פנים בלבד",
		"arch_property_type":  "משהו אחר לגמרי",
		"arch_planning_stage": "רעיון / סקיצה",
		"arch_existing_docs":  "מדידה",
	})

	assert.Equal(t, "interior_only", *lead.ArchService)
	assert.Equal(t, unknownAnswer, *lead.ArchPropertyType)
	assert.Equal(t, "idea_or_sketch", *lead.ArchPlanningStage)
	assert.Equal(t, []string{"survey"}, lead.ArchExistingDocs)
}

func TestApplyBotAnswersMamadIgnoresOtherTracks(t *testing.T) {
	lead := &entity.Lead{}
	applyBotAnswers(lead, entity.ProjectTypeMamad, map[string]any{
		"mamad_variant": `ממ"ד 12 מ"ר כולל חדר רחצה`,
		"reno_type":     "שיפוץ כללי מקיף",
	})
	assert.Equal(t, "m12_with_bath", *lead.MamadVariant)
	assert.Nil(t, lead.RenoType)
}

func TestStringAnswer(t *testing.T) {
	a := map[string]any{"n": 972501234567.0, "s": " x ", "b": true, "nil": nil}
	assert.Equal(t, "972501234567", stringAnswer(a, "n"))
	assert.Equal(t, "x", stringAnswer(a, "s"))
	assert.Equal(t, "true", stringAnswer(a, "b"))
	assert.Equal(t, "", stringAnswer(a, "nil"))
	assert.Equal(t, "", stringAnswer(a, "missing"))
}
