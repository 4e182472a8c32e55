package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ListLeadsUseCase struct {
	LeadRepo        entity.LeadRepositoryInterface
	ProjectTypeRepo entity.ProjectTypeRepositoryInterface
}

func NewListLeadsUseCase(leadRepo entity.LeadRepositoryInterface, projectTypeRepo entity.ProjectTypeRepositoryInterface) *ListLeadsUseCase {
	return &ListLeadsUseCase{LeadRepo: leadRepo, ProjectTypeRepo: projectTypeRepo}
}

// Execute lists leads newest first, restricted to what actor's role may see.
// Unrecognised filter values (unknown project type key, status or assignee
// id) are ignored rather than rejected.
func (uc *ListLeadsUseCase) Execute(ctx context.Context, input ListLeadsInput, actor entity.User) (*LeadListOutput, error) {
	filter, err := uc.buildFilter(ctx, input)
	if err != nil {
		return nil, err
	}
	filter.Scope = LeadScopeFor(actor)

	leads, total, err := uc.LeadRepo.List(ctx, filter)
	if err != nil {
		return nil, databaseError("list leads", err)
	}

	items := make([]LeadOutput, 0, len(leads))
	for i := range leads {
		items = append(items, *newLeadOutput(&leads[i]))
	}

	pages := 0
	if total > 0 {
		pages = (total + filter.PageSize - 1) / filter.PageSize
	}
	return &LeadListOutput{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Pages:    pages,
	}, nil
}

func (uc *ListLeadsUseCase) buildFilter(ctx context.Context, input ListLeadsInput) (entity.LeadFilter, error) {
	var errs ValidationErrors
	f := entity.LeadFilter{Page: input.Page, PageSize: input.PageSize}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = DefaultPageSize
	}
	if f.Page < 1 {
		errs = append(errs, ValidationError{"page", "must be at least 1"})
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		errs = append(errs, ValidationError{"page_size", "must be between 1 and 100"})
	}
	if len(errs) > 0 {
		return f, errs
	}

	if input.ProjectTypeKey != "" {
		pt, err := uc.ProjectTypeRepo.FindByKey(ctx, input.ProjectTypeKey)
		switch {
		case err == nil:
			f.ProjectTypeID = &pt.ID
		case !errors.Is(err, entity.ErrNotFound):
			return f, databaseError("find project type", err)
		}
	}
	if s, err := entity.ParseLeadStatus(input.Status); err == nil {
		f.Status = &s
	}
	if input.Assignee != "" && isUUID(input.Assignee) {
		a := input.Assignee
		f.AssigneeID = &a
	}
	if input.Temperature != "" {
		t := entity.LeadTemperature(input.Temperature)
		f.Temperature = &t
	}
	if input.Source != "" {
		s := entity.LeadSource(input.Source)
		f.Source = &s
	}
	f.BotCompleted = input.BotCompleted

	if term := strings.TrimSpace(input.Search); term != "" {
		f.Search = term
		if looksLikePhone(term) {
			f.SearchPhone = NormalizePhone(term)
		}
	}
	return f, nil
}
