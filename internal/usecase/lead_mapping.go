package usecase

import (
	"strconv"
	"strings"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

const unknownAnswer = "other_or_unknown"

type answer struct {
	he, value string
}

// dictionary is ordered: the substring fallback returns the first hit.
type dictionary []answer

func (d dictionary) exact(v string) (string, bool) {
	for _, a := range d {
		if a.he == v {
			return a.value, true
		}
	}
	return "", false
}

// lookup maps a bot answer to its code. Exact matches win, then either side
// containing the other, then other_or_unknown.
func (d dictionary) lookup(v string) string {
	v = strings.TrimSpace(v)
	if code, ok := d.exact(v); ok {
		return code
	}
	for _, a := range d {
		if strings.Contains(v, a.he) || strings.Contains(a.he, v) {
			return a.value
		}
	}
	return unknownAnswer
}

// passthrough maps known answers and keeps unknown ones as sent.
func (d dictionary) passthrough(v string) string {
	v = strings.TrimSpace(v)
	if code, ok := d.exact(v); ok {
		return code
	}
	return v
}

var (
	timelineAnswers = dictionary{
		{"מיידית", "immediate"},
		{"מיידית / בחודש הקרוב", "immediate"},
		{"1–3 חודשים", "1_3_months"},
		{"לאחר קבלת היתר", "after_permit"},
		{"עדיין לא יודעים / לטווח ארוך", "long_term"},
		{"3–6 חודשים", "long_term"},
		{"עדיין לא בטוחים", "unknown"},
		{"לא מוגדר", "unknown"},
	}
	plansStatusAnswers = dictionary{
		{"אין תכנון", "none_need_planning"},
		{"בתהליך תכנון", "in_planning"},
		{"כן – יש תכניות מלאות", "has_full_plans"},
	}
	permitStatusAnswers = dictionary{
		{"כן – היתר בתוקף", "valid"},
		{"היתר בתהליך הגשה", "in_process"},
		{"אין היתר", "none_need_support"},
	}
	buildingTypeAnswers = dictionary{
		{"בית פרטי / דירת קרקע", "private_or_ground"},
		{"דירה בקומה / בניין רב קומות", "apartment_or_building"},
	}
	siteAccessAnswers = dictionary{
		{"גישה מלאה", "full"},
		{"גישה חלקית", "partial"},
		{"גישה רגלית בלבד", "pedestrian_only"},
	}
	mamadVariantAnswers = dictionary{
		{`ממ"ד ברישוי מקוצר (9 מ"ר נטו)`, "fast_license_9"},
		{`ממ"ד בהיתר מלא (גדול מ-9)`, "full_permit_gt9"},
		{`ממ"ד 12 מ"ר כולל חדר רחצה`, "m12_with_bath"},
		{`ממ"ד 15 מ"ר כולל חדר רחצה`, "m15_with_bath"},
	}
	privateStageAnswers = dictionary{
		{"בניית וילה / בית פרטי מלא", "full_house"},
		{"בניית שלד בלבד", "shell_only"},
		{"תוספת קומה / הרחבת בית קיים", "add_floor_or_expand"},
		{"עבודות גמר מלאות", "finishes_full"},
	}
	privateSizeAnswers = dictionary{
		{"עד 120", "up_to_120"},
		{"120–250", "120_250"},
		{"מעל 250", "250_plus"},
	}
	privateSpecialAnswers = dictionary{
		{"מרתף", "basement"},
		{`ממ"ד`, "mamad"},
		{"בריכה", "pool"},
		{"גג רעפים", "roof_tiles"},
		{"מספר פריטים", "multiple"},
	}
	archServiceAnswers = dictionary{
		{"תכנון עד ביצוע", "planning_to_execution"},
		{"תכנון אדריכלי מלא לפרויקט חדש", "full_arch_new"},
		{"הוצאת היתר בנייה / תכנון תוספת", "permit_or_addition"},
		{"עיצוב פנים בלבד", "interior_only"},
	}
	archPropertyAnswers = dictionary{
		{"בית פרטי — עד 150", "house_upto150"},
		{"בית פרטי — מעל 150", "house_over150"},
		{"דירה קיימת", "existing_apartment"},
		{"מגרש ריק / תוספת", "empty_plot_or_addition"},
		{"לא בטוחים", "unknown"},
	}
	archPlanningAnswers = dictionary{
		{"אין תכנון", "none"},
		{"רעיון / סקיצה", "idea_or_sketch"},
		{"תכנון קיים — נדרש ליווי להיתר", "existing_need_permit"},
		{"תכנון כמעט מוכן", "almost_ready_adjust"},
	}
	archDocsAnswers = dictionary{
		{"מדידה", "survey"},
		{"תשריט", "map"},
		{"אדריכלות", "architecture"},
		{"קונסטרוקציה", "structural"},
		{"סקיצה", "sketch"},
		{"אין", "none"},
	}
	renoTypeAnswers = dictionary{
		{"שיפוץ כללי מקיף", "full"},
		{"שיפוץ חדרי רחצה / מטבח", "bath_kitchen"},
		{"עבודות גמר אחרי שלד", "finishes_after_shell"},
		{"תוספת בנייה + שיפוץ", "add_building_plus_reno"},
	}
	renoSizeAnswers = dictionary{
		{"עד 60", "up_to_60"},
		{"60–120", "60_120"},
		{"מעל 120", "120_plus"},
	}
	renoHasPlanAnswers = dictionary{
		{"כן — תכנית מלאה", "full"},
		{"תכנית חלקית / סקיצה", "partial"},
		{"אין תכנית", "none"},
	}
	isOccupiedAnswers = dictionary{
		{"כן", "true"},
		{"לא", "false"},
	}
	trackNames = dictionary{
		{`ממ"ד`, entity.ProjectTypeMamad},
		{"ממד", entity.ProjectTypeMamad},
		{"בנייה פרטית", entity.ProjectTypePrivateHome},
		{"עבודות גמר", entity.ProjectTypeRenovation},
		{"שיפוץ", entity.ProjectTypeRenovation},
		{"אדריכלות", entity.ProjectTypeArchitecture},
		{"רישוי", entity.ProjectTypeArchitecture},
		{"עיצוב פנים", entity.ProjectTypeArchitecture},
		{"אדריכלות / רישוי / עיצוב פנים", entity.ProjectTypeArchitecture},
	}
)

// ResolveTrack turns the bot's track label, English key or Hebrew name, into
// a project type key. It returns "" for anything it does not recognise.
func ResolveTrack(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if entity.ValidProjectTypeKey(raw) {
		return raw
	}
	key, _ := trackNames.exact(raw)
	return key
}

// applyBotAnswers copies the answers of one bot track onto the lead. Only
// answers that are present are written; an unknown track gets the common
// fields and its name recorded.
func applyBotAnswers(lead *entity.Lead, track string, answers map[string]any) {
	applyCommonAnswers(lead, answers)
	t := track
	lead.BotTrack = &t

	q := &lead.Qualification
	switch track {
	case entity.ProjectTypeMamad:
		mapInto(&q.MamadVariant, answers, mamadVariantAnswers, "mamad_variant")
	case entity.ProjectTypePrivateHome:
		mapInto(&q.PrivateStage, answers, privateStageAnswers, "private_stage")
		mapInto(&q.EstimatedSizeBucket, answers, privateSizeAnswers, "estimated_size", "estimated_size_bucket")
		if items, ok := listAnswer(answers, "private_special_struct"); ok {
			q.PrivateSpecialStruct = mapSpecialStructures(items)
		}
	case entity.ProjectTypeRenovation:
		mapInto(&q.RenoType, answers, renoTypeAnswers, "reno_type")
		mapInto(&q.EstimatedSizeBucket, answers, renoSizeAnswers, "estimated_size", "estimated_size_bucket")
		mapInto(&q.RenoHasPlan, answers, renoHasPlanAnswers, "reno_has_plan")
		if v := stringAnswer(answers, "is_occupied"); v != "" {
			if code, ok := isOccupiedAnswers.exact(v); ok {
				q.IsOccupied = &code
			}
		}
	case entity.ProjectTypeArchitecture:
		mapInto(&q.ArchService, answers, archServiceAnswers, "arch_service")
		mapInto(&q.ArchPropertyType, answers, archPropertyAnswers, "arch_property_type")
		mapInto(&q.ArchPlanningStage, answers, archPlanningAnswers, "arch_planning_stage")
		if items, ok := listAnswer(answers, "arch_existing_docs"); ok {
			docs := make([]string, 0, len(items))
			for _, item := range items {
				docs = append(docs, archDocsAnswers.passthrough(item))
			}
			q.ArchExistingDocs = docs
		}
	}
}

func applyCommonAnswers(lead *entity.Lead, answers map[string]any) {
	q := &lead.Qualification
	mapInto(&q.StartTimeline, answers, timelineAnswers, "timeline", "start_timeline")
	mapInto(&q.PlansStatus, answers, plansStatusAnswers, "plans_status")
	mapInto(&q.PermitStatus, answers, permitStatusAnswers, "permit_status")
	mapInto(&q.BuildingType, answers, buildingTypeAnswers, "building_type")
	mapInto(&q.SiteAccess, answers, siteAccessAnswers, "site_access")

	if loc := stringAnswer(answers, "location"); loc != "" {
		city, street := parseLocation(loc)
		if city != "" {
			lead.City = &city
		}
		if street != "" {
			lead.Street = &street
		}
	} else {
		if city := stringAnswer(answers, "city"); city != "" {
			lead.City = &city
		}
		if street := stringAnswer(answers, "street"); street != "" {
			lead.Street = &street
		}
	}
	if name := stringAnswer(answers, "full_name"); name != "" {
		lead.FullName = name
	}
}

func mapInto(dst **string, answers map[string]any, dict dictionary, keys ...string) {
	for _, k := range keys {
		if v := stringAnswer(answers, k); v != "" {
			code := dict.lookup(v)
			*dst = &code
			return
		}
	}
}

// mapSpecialStructures maps the private home extras. A combined "pool and
// tiled roof" answer yields both codes. Duplicates are dropped.
func mapSpecialStructures(items []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	for _, item := range items {
		add(privateSpecialAnswers.passthrough(item))
		if strings.Contains(item, "בריכה") && strings.Contains(item, "גג") {
			add("pool")
			add("roof_tiles")
		}
	}
	return out
}

func parseLocation(text string) (city, street string) {
	parts := strings.Split(text, ",")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(text), ""
}

// stringAnswer reads a scalar answer. JSON numbers are rendered without a
// trailing ".0" so phone numbers sent as numbers survive.
func stringAnswer(answers map[string]any, key string) string {
	switch v := answers[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func listAnswer(answers map[string]any, key string) ([]string, bool) {
	switch v := answers[key].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
		return []string{v}, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}

func truthy(answers map[string]any, key string) bool {
	switch v := answers[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	case float64:
		return v != 0
	}
	return false
}
