// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package registered_limits

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

// CollectionPath is the path of the registered limits collection.
const CollectionPath = "/v3/registered_limits"

var (
	maskManager = handlers.MaskManager{
		"service_id":    limit.ServiceIdField,
		"region_id":     limit.RegionIdField,
		"resource_name": limit.ResourceNameField,
		"default_limit": limit.DefaultLimitField,
		"description":   limit.DescriptionField,
	}

	listFilters = []string{"service_id", "region_id", "resource_name"}

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
	)
)

func init() {
	action.RegisterResource(resource.RegisteredLimit, IdActions, CollectionActions)
}

// RegisteredLimit is the API representation of a registered limit.
type RegisteredLimit struct {
	Id           string                `json:"id"`
	ServiceId    string                `json:"service_id"`
	RegionId     *string               `json:"region_id"`
	ResourceName string                `json:"resource_name"`
	DefaultLimit int                   `json:"default_limit"`
	Description  *string               `json:"description"`
	Links        *handlers.MemberLinks `json:"links,omitempty"`
}

type registeredLimitInput struct {
	ServiceId    string  `json:"service_id"`
	RegionId     *string `json:"region_id"`
	ResourceName string  `json:"resource_name"`
	DefaultLimit int     `json:"default_limit"`
	Description  *string `json:"description"`
}

type (
	CreateRegisteredLimitsRequest struct {
		Body map[string]any
	}
	CreateRegisteredLimitsResponse struct {
		RegisteredLimits []*RegisteredLimit `json:"registered_limits"`
	}
	UpdateRegisteredLimitRequest struct {
		Id   string
		Body map[string]any
	}
	UpdateRegisteredLimitResponse struct {
		RegisteredLimit *RegisteredLimit `json:"registered_limit"`
	}
	ListRegisteredLimitsRequest struct {
		Query url.Values
	}
	ListRegisteredLimitsResponse struct {
		RegisteredLimits []*RegisteredLimit       `json:"registered_limits"`
		Links            handlers.CollectionLinks `json:"links"`
		Truncated        bool                     `json:"truncated,omitempty"`
	}
	GetRegisteredLimitRequest struct {
		Id string
	}
	GetRegisteredLimitResponse struct {
		RegisteredLimit *RegisteredLimit `json:"registered_limit"`
	}
	DeleteRegisteredLimitRequest struct {
		Id string
	}
	DeleteRegisteredLimitResponse struct{}
)

// Service handles registered limit requests.
type Service struct {
	repoFn      common.LimitRepoFactory
	listLimitFn common.ListLimitFn
	acl         perms.ACL
}

// NewService returns a registered limit service. listLimitFn may be nil when
// lists are not capped.
func NewService(ctx context.Context, repoFn common.LimitRepoFactory, listLimitFn common.ListLimitFn, acl perms.ACL) (Service, error) {
	const op = "registered_limits.NewService"
	if repoFn == nil {
		return Service{}, errors.New(ctx, errors.InvalidParameter, op, "missing limit repository")
	}
	return Service{repoFn: repoFn, listLimitFn: listLimitFn, acl: acl}, nil
}

// Routes mounts the service on r.
func (s Service) Routes(r chi.Router, logger hclog.Logger) {
	r.Route(CollectionPath, func(r chi.Router) {
		r.Post("/", handlers.Endpoint(logger, http.StatusCreated,
			func(req *http.Request) (*CreateRegisteredLimitsRequest, error) {
				body, err := handlers.DecodeBody(req)
				return &CreateRegisteredLimitsRequest{Body: body}, err
			}, s.CreateRegisteredLimits))
		r.Get("/", handlers.Endpoint(logger, http.StatusOK,
			func(req *http.Request) (*ListRegisteredLimitsRequest, error) {
				return &ListRegisteredLimitsRequest{Query: req.URL.Query()}, nil
			}, s.ListRegisteredLimits))
		r.Get("/{id}", handlers.Endpoint(logger, http.StatusOK,
			func(req *http.Request) (*GetRegisteredLimitRequest, error) {
				return &GetRegisteredLimitRequest{Id: chi.URLParam(req, "id")}, nil
			}, s.GetRegisteredLimit))
		r.Patch("/{id}", handlers.Endpoint(logger, http.StatusOK,
			func(req *http.Request) (*UpdateRegisteredLimitRequest, error) {
				body, err := handlers.DecodeBody(req)
				return &UpdateRegisteredLimitRequest{Id: chi.URLParam(req, "id"), Body: body}, err
			}, s.UpdateRegisteredLimit))
		r.Delete("/{id}", handlers.Endpoint(logger, http.StatusNoContent,
			func(req *http.Request) (*DeleteRegisteredLimitRequest, error) {
				return &DeleteRegisteredLimitRequest{Id: chi.URLParam(req, "id")}, nil
			}, s.DeleteRegisteredLimit))
	})
}

// CreateRegisteredLimits creates every registered limit in the request.
func (s Service) CreateRegisteredLimits(ctx context.Context, req *CreateRegisteredLimitsRequest) (*CreateRegisteredLimitsResponse, error) {
	const op = "registered_limits.(Service).CreateRegisteredLimits"
	if _, err := handlers.Authorize(ctx, s.acl, resource.RegisteredLimit, action.Create); err != nil {
		return nil, err
	}
	if err := handlers.Validate(createSchema, req.Body); err != nil {
		return nil, err
	}
	var inputs []registeredLimitInput
	if err := handlers.Reshape(req.Body[collectionKey], &inputs); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	rls := make([]*limit.RegisteredLimit, 0, len(inputs))
	for _, in := range inputs {
		rls = append(rls, &limit.RegisteredLimit{
			ServiceId:    in.ServiceId,
			RegionId:     in.RegionId,
			ResourceName: in.ResourceName,
			DefaultLimit: in.DefaultLimit,
			Description:  in.Description,
		})
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	created, err := repo.CreateRegisteredLimits(ctx, rls)
	if err != nil {
		return nil, err
	}
	out := make([]*RegisteredLimit, 0, len(created))
	for _, rl := range created {
		out = append(out, toView(ctx, rl, false))
	}
	return &CreateRegisteredLimitsResponse{RegisteredLimits: out}, nil
}

// UpdateRegisteredLimit updates the fields present in the request body.
func (s Service) UpdateRegisteredLimit(ctx context.Context, req *UpdateRegisteredLimitRequest) (*UpdateRegisteredLimitResponse, error) {
	const op = "registered_limits.(Service).UpdateRegisteredLimit"
	if _, err := handlers.Authorize(ctx, s.acl, resource.RegisteredLimit, action.Update); err != nil {
		return nil, err
	}
	if err := handlers.Validate(updateSchema, req.Body); err != nil {
		return nil, err
	}
	fields, _ := req.Body[memberKey].(map[string]any)
	var in registeredLimitInput
	if err := handlers.Reshape(fields, &in); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	updated, err := repo.UpdateRegisteredLimit(ctx, req.Id, &limit.RegisteredLimit{
		ServiceId:    in.ServiceId,
		RegionId:     in.RegionId,
		ResourceName: in.ResourceName,
		DefaultLimit: in.DefaultLimit,
		Description:  in.Description,
	}, maskManager.Translate(fields))
	if err != nil {
		return nil, err
	}
	return &UpdateRegisteredLimitResponse{RegisteredLimit: toView(ctx, updated, true)}, nil
}

// ListRegisteredLimits lists registered limits matching the query filters.
func (s Service) ListRegisteredLimits(ctx context.Context, req *ListRegisteredLimitsRequest) (*ListRegisteredLimitsResponse, error) {
	const op = "registered_limits.(Service).ListRegisteredLimits"
	if _, err := handlers.Authorize(ctx, s.acl, resource.RegisteredLimit, action.List); err != nil {
		return nil, err
	}
	filter, err := handlers.NewFilter(req.Query.Get("filter"))
	if err != nil {
		return nil, err
	}
	h := hints.FromQuery(req.Query, listFilters...)
	var listLimit int
	if s.listLimitFn != nil {
		if listLimit, err = s.listLimitFn(ctx); err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
	}
	if filter.IsEmpty() {
		h.SetLimit(listLimit)
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	rls, err := repo.ListRegisteredLimits(ctx, h)
	if err != nil {
		return nil, err
	}
	out := make([]*RegisteredLimit, 0, len(rls))
	for _, rl := range rls {
		item := toView(ctx, rl, true)
		if filter.Match(item) {
			out = append(out, item)
		}
	}
	truncated := h.Truncated()
	if listLimit > 0 && len(out) > listLimit {
		out = out[:listLimit]
		truncated = true
	}
	return &ListRegisteredLimitsResponse{
		RegisteredLimits: out,
		Links:            handlers.CollectionLink(ctx, CollectionPath, req.Query.Encode()),
		Truncated:        truncated,
	}, nil
}

// GetRegisteredLimit returns a single registered limit.
func (s Service) GetRegisteredLimit(ctx context.Context, req *GetRegisteredLimitRequest) (*GetRegisteredLimitResponse, error) {
	const op = "registered_limits.(Service).GetRegisteredLimit"
	if _, err := handlers.Authorize(ctx, s.acl, resource.RegisteredLimit, action.Read); err != nil {
		return nil, err
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	rl, err := repo.GetRegisteredLimit(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return &GetRegisteredLimitResponse{RegisteredLimit: toView(ctx, rl, true)}, nil
}

// DeleteRegisteredLimit deletes a registered limit.
func (s Service) DeleteRegisteredLimit(ctx context.Context, req *DeleteRegisteredLimitRequest) (*DeleteRegisteredLimitResponse, error) {
	const op = "registered_limits.(Service).DeleteRegisteredLimit"
	if _, err := handlers.Authorize(ctx, s.acl, resource.RegisteredLimit, action.Delete); err != nil {
		return nil, err
	}
	repo, err := s.repoFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	if err := repo.DeleteRegisteredLimit(ctx, req.Id); err != nil {
		return nil, err
	}
	return &DeleteRegisteredLimitResponse{}, nil
}

func toView(ctx context.Context, in *limit.RegisteredLimit, withLinks bool) *RegisteredLimit {
	out := &RegisteredLimit{
		Id:           in.Id,
		ServiceId:    in.ServiceId,
		RegionId:     in.RegionId,
		ResourceName: in.ResourceName,
		DefaultLimit: in.DefaultLimit,
		Description:  in.Description,
	}
	if withLinks {
		out.Links = handlers.MemberLink(ctx, CollectionPath, in.Id)
	}
	return out
}
