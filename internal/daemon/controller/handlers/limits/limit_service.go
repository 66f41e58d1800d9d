// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limits

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/daemon/controller/common"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/hints"
	"github.com/quotagate/quotagate/internal/limit"
	"github.com/quotagate/quotagate/internal/perms"
	"github.com/quotagate/quotagate/internal/types/action"
	"github.com/quotagate/quotagate/internal/types/resource"
)

// CollectionPath is the path of the limits collection.
const CollectionPath = "/v3/limits"

const projectIdFilter = "project_id"

var (
	maskManager = handlers.MaskManager{
		"resource_limit": limit.ResourceLimitField,
		"description":    limit.DescriptionField,
	}

	listFilters = []string{"service_id", "region_id", "resource_name", projectIdFilter}

	// IdActions contains the set of actions that can be performed on
	// individual resources
	IdActions = action.NewActionSet(
		action.Read,
		action.Update,
		action.Delete,
	)

	// CollectionActions contains the set of actions that can be performed on
	// this collection
	CollectionActions = action.NewActionSet(
		action.Create,
		action.List,
		action.ReadModel,
	)
)

func init() {
	action.RegisterResource(resource.Limit, IdActions, CollectionActions)
}

// Limit is the API representation of a project limit.
type Limit struct {
	Id                string                `json:"id"`
	ProjectId         string                `json:"project_id"`
	RegisteredLimitId string                `json:"registered_limit_id"`
	ServiceId         string                `json:"service_id"`
	RegionId          *string               `json:"region_id"`
	ResourceName      string                `json:"resource_name"`
	ResourceLimit     int                   `json:"resource_limit"`
	Description       *string               `json:"description"`
	Links             *handlers.MemberLinks `json:"links,omitempty"`
}

// Model is the API representation of the enforcement model.
type Model struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type limitInput struct {
	ProjectId     string  `json:"project_id"`
	ServiceId     string  `json:"service_id"`
	RegionId      *string `json:"region_id"`
	ResourceName  string  `json:"resource_name"`
	ResourceLimit int     `json:"resource_limit"`
	Description   *string `json:"description"`
}

type (
	GetLimitModelRequest  struct{}
	GetLimitModelResponse struct {
		Model *Model `json:"model"`
	}
	CreateLimitsRequest struct {
		Body map[string]any
	}
	CreateLimitsResponse struct {
		Limits []*Limit `json:"limits"`
	}
	UpdateLimitRequest struct {
		Id   string
		Body map[string]any
	}
	UpdateLimitResponse struct {
		Limit *Limit `json:"limit"`
	}
	ListLimitsRequest struct {
		Query url.Values
	}
	ListLimitsResponse struct {
		Limits    []*Limit                 `json:"limits"`
		Links     handlers.CollectionLinks `json:"links"`
		Truncated bool                     `json:"truncated,omitempty"`
	}
	GetLimitRequest struct {
		Id string
	}
	GetLimitResponse struct {
		Limit *Limit `json:"limit"`
	}
	DeleteLimitRequest struct {
		Id string
	}
	DeleteLimitResponse struct{}
)

// Service handles project limit requests.
type Service struct {
	repoFn      common.LimitRepoFactory
	listLimitFn common.ListLimitFn
	acl         perms.ACL
}

// NewService returns a limit service. listLimitFn may be nil when lists are
// not capped.
func NewService(ctx context.Context, repoFn common.LimitRepoFactory, listLimitFn common.ListLimitFn, acl perms.ACL) (Service, error) {
	const op = "limits.NewService"
	if repoFn == nil {
		return Service{}, errors.New(ctx, errors.InvalidParameter, op, "missing limit repository")
	}
	return Service{repoFn: repoFn, listLimitFn: listLimitFn, acl: acl}, nil
}

// Routes mounts the service on r.
func (s Service) Routes(r chi.Router, logger hclog.Logger) {
	r.Route(CollectionPath, func(r chi.Router) {
		r.Get("/model", handlers.Endpoint(logger, http.StatusOK,
			func(*http.Request) (*GetLimitModelRequest, error) {
				return &GetLimitModelRequest{}, nil
			}, s.GetLimitModel))
		r.Post("/", handlers.Endpoint(logger, http.StatusCreated,
			func(req *http.Request) (*CreateLimitsRequest, error) {
				body, err := handlers.DecodeBody(req)
				return &CreateLimitsRequest{Body: body}, err
			}, s.CreateLimits))
		r.Get("/", handlers.Endpoint(logger, http.StatusOK,
			func(req *http.Request) (*ListLimitsRequest, error) {
				return &ListLimitsRequest{Query: req.URL.Query()}, nil
			}, s.ListLimits))
		r.Get("/{id}", handlers.Endpoint(logger, http.StatusOK,
			func(req *http.Request) (*GetLimitRequest, error) {
				return &GetLimitRequest{Id: chi.URLParam(req, "id")}, nil
			}, s.GetLimit))
		r.Patch("/{id}", handlers.Endpoint(logger, http.StatusOK,
			func(req *http.Request) (*UpdateLimitRequest, error) {
				body, err := handlers.DecodeBody(req)
				return &UpdateLimitRequest{Id: chi.URLParam(req, "id"), Body: body}, err
			}, s.UpdateLimit))
		r.Delete("/{id}", handlers.Endpoint(logger, http.StatusNoContent,
			func(req *http.Request) (*DeleteLimitRequest, error) {
				return &DeleteLimitRequest{Id: chi.URLParam(req, "id")}, nil
			}, s.DeleteLimit))
	})
}

// GetLimitModel returns the enforcement model in use.
func (s Service) GetLimitModel(ctx context.Context, _ *GetLimitModelRequest) (*GetLimitModelResponse, error) {
	const op = "limits.(Service).GetLimitModel"
	if _, err := handlers.Authorize(ctx, s.acl, resource.Limit, action.ReadModel); err != nil {
		return nil, err
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	m, err := repo.GetModel(ctx)
	if err != nil {
		return nil, err
	}
	return &GetLimitModelResponse{Model: &Model{Name: m.Name, Description: m.Description}}, nil
}

// CreateLimits creates every limit in the request. Each limit must match a
// registered limit.
func (s Service) CreateLimits(ctx context.Context, req *CreateLimitsRequest) (*CreateLimitsResponse, error) {
	const op = "limits.(Service).CreateLimits"
	if _, err := handlers.Authorize(ctx, s.acl, resource.Limit, action.Create); err != nil {
		return nil, err
	}
	if err := handlers.Validate(createSchema, req.Body); err != nil {
		return nil, err
	}
	var inputs []limitInput
	if err := handlers.Reshape(req.Body[collectionKey], &inputs); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	ls := make([]*limit.Limit, 0, len(inputs))
	for _, in := range inputs {
		ls = append(ls, &limit.Limit{
			ProjectId:     in.ProjectId,
			ServiceId:     in.ServiceId,
			RegionId:      in.RegionId,
			ResourceName:  in.ResourceName,
			ResourceLimit: in.ResourceLimit,
			Description:   in.Description,
		})
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	created, err := repo.CreateLimits(ctx, ls)
	if err != nil {
		return nil, err
	}
	out := make([]*Limit, 0, len(created))
	for _, l := range created {
		out = append(out, toView(ctx, l, false))
	}
	return &CreateLimitsResponse{Limits: out}, nil
}

// UpdateLimit updates the resource limit or description of a limit.
func (s Service) UpdateLimit(ctx context.Context, req *UpdateLimitRequest) (*UpdateLimitResponse, error) {
	const op = "limits.(Service).UpdateLimit"
	if _, err := handlers.Authorize(ctx, s.acl, resource.Limit, action.Update); err != nil {
		return nil, err
	}
	if err := handlers.Validate(updateSchema, req.Body); err != nil {
		return nil, err
	}
	fields, _ := req.Body[memberKey].(map[string]any)
	var in limitInput
	if err := handlers.Reshape(fields, &in); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	updated, err := repo.UpdateLimit(ctx, req.Id, &limit.Limit{
		ResourceLimit: in.ResourceLimit,
		Description:   in.Description,
	}, maskManager.Translate(fields))
	if err != nil {
		return nil, err
	}
	return &UpdateLimitResponse{Limit: toView(ctx, updated, true)}, nil
}

// ListLimits lists limits visible to the caller. An explicit project_id
// filter is only honored for system scoped callers; everyone else gets an
// empty list for it. Without that filter, callers holding a project only
// see that project's limits.
func (s Service) ListLimits(ctx context.Context, req *ListLimitsRequest) (*ListLimitsResponse, error) {
	const op = "limits.(Service).ListLimits"
	caller, err := handlers.Authorize(ctx, s.acl, resource.Limit, action.List)
	if err != nil {
		return nil, err
	}
	filter, err := handlers.NewFilter(req.Query.Get("filter"))
	if err != nil {
		return nil, err
	}
	resp := &ListLimitsResponse{
		Limits: []*Limit{},
		Links:  handlers.CollectionLink(ctx, CollectionPath, req.Query.Encode()),
	}

	h := hints.FromQuery(req.Query, listFilters...)
	switch {
	case h.GetExactFilterByName(projectIdFilter) != nil:
		if !caller.IsSystemScoped() {
			return resp, nil
		}
	case caller.ProjectId != "":
		h.AddFilter(projectIdFilter, caller.ProjectId)
	}
	var listLimit int
	if s.listLimitFn != nil {
		if listLimit, err = s.listLimitFn(ctx); err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
	}
	// A filter is evaluated on the views, so storage can only cut the list
	// when there is none.
	if filter.IsEmpty() {
		h.SetLimit(listLimit)
	}

	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	ls, err := repo.ListLimits(ctx, h)
	if err != nil {
		return nil, err
	}
	for _, l := range ls {
		item := toView(ctx, l, true)
		if filter.Match(item) {
			resp.Limits = append(resp.Limits, item)
		}
	}
	resp.Truncated = h.Truncated()
	if listLimit > 0 && len(resp.Limits) > listLimit {
		resp.Limits = resp.Limits[:listLimit]
		resp.Truncated = true
	}
	return resp, nil
}

// GetLimit returns a single limit. Non admin callers may only read limits of
// their own project.
func (s Service) GetLimit(ctx context.Context, req *GetLimitRequest) (*GetLimitResponse, error) {
	const op = "limits.(Service).GetLimit"
	caller, err := handlers.Authorize(ctx, s.acl, resource.Limit, action.Read)
	if err != nil {
		return nil, err
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	l, err := repo.GetLimit(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdministrator() && caller.ProjectId != "" && caller.ProjectId != l.ProjectId {
		return nil, handlers.ForbiddenErrorf("The authenticated project should match the project_id")
	}
	return &GetLimitResponse{Limit: toView(ctx, l, true)}, nil
}

// DeleteLimit deletes a limit.
func (s Service) DeleteLimit(ctx context.Context, req *DeleteLimitRequest) (*DeleteLimitResponse, error) {
	const op = "limits.(Service).DeleteLimit"
	if _, err := handlers.Authorize(ctx, s.acl, resource.Limit, action.Delete); err != nil {
		return nil, err
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	if err := repo.DeleteLimit(ctx, req.Id); err != nil {
		return nil, err
	}
	return &DeleteLimitResponse{}, nil
}

func toView(ctx context.Context, in *limit.Limit, withLinks bool) *Limit {
	out := &Limit{
		Id:                in.Id,
		ProjectId:         in.ProjectId,
		RegisteredLimitId: in.RegisteredLimitId,
		ServiceId:         in.ServiceId,
		RegionId:          in.RegionId,
		ResourceName:      in.ResourceName,
		ResourceLimit:     in.ResourceLimit,
		Description:       in.Description,
	}
	if withLinks {
		out.Links = handlers.MemberLink(ctx, CollectionPath, in.Id)
	}
	return out
}
