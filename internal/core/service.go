package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/datatable"
	"golang.org/x/sync/errgroup"
)

// API is the subset of the HR API client the service needs.
// Satisfied by *apiclient.Client.
type API interface {
	Login(ctx context.Context, username, password string) (apiclient.Auth, error)
	List(ctx context.Context, token, endpoint string, p apiclient.ListParams) (apiclient.ListResult, error)
	Get(ctx context.Context, token, endpoint, id string) (map[string]any, error)
	Create(ctx context.Context, token, endpoint string, rec map[string]any) (map[string]any, error)
	Update(ctx context.Context, token, endpoint, id string, rec map[string]any) (map[string]any, error)
	Delete(ctx context.Context, token, endpoint, id string) error
	Action(ctx context.Context, token, path string, body map[string]any) (map[string]any, error)
	PostMultipart(ctx context.Context, token, path string, fields map[string]string, files ...apiclient.File) (map[string]any, error)
	Raw(ctx context.Context, token, endpoint string) (any, error)
}

// ServiceConfig tunes the service.
type ServiceConfig struct {
	// MaxExportRows caps how many rows an export collects from paged endpoints.
	MaxExportRows int
	// ExportPageSize is the page size used while collecting an export.
	ExportPageSize int
	// OrgEndpoint serves the organisation hierarchy.
	OrgEndpoint string
	// AttendanceEndpoint is the root of the check-in/check-out API.
	AttendanceEndpoint string
}

// Service provides the HR admin operations used by the web handlers and the CLI.
type Service struct {
	api API
	cfg ServiceConfig
}

// NewService creates a new Service instance.
func NewService(api API, cfg ServiceConfig) *Service {
	if cfg.MaxExportRows <= 0 {
		cfg.MaxExportRows = 10000
	}
	if cfg.ExportPageSize <= 0 {
		cfg.ExportPageSize = 100
	}
	if cfg.OrgEndpoint == "" {
		cfg.OrgEndpoint = "organization/tree"
	}
	if cfg.AttendanceEndpoint == "" {
		cfg.AttendanceEndpoint = "attendance"
	}
	return &Service{api: api, cfg: cfg}
}

// Login signs a user in.
func (s *Service) Login(ctx context.Context, username, password string) (apiclient.Auth, error) {
	errs := ValidationErrors{}
	if strings.TrimSpace(username) == "" {
		errs.Add("username", "is required")
	}
	if password == "" {
		errs.Add("password", "is required")
	}
	if len(errs) > 0 {
		return apiclient.Auth{}, errs
	}
	return s.api.Login(ctx, strings.TrimSpace(username), password)
}

// ListRecords fetches the rows for a resource list screen.
//
// ServerPaged resources forward page, size, search and sort to the API and
// return one page. Other resources are fetched whole and filtered locally;
// the table sorts and slices them.
func (s *Service) ListRecords(ctx context.Context, token, key string, q ListQuery) (ListPage, error) {
	def, err := Lookup(key)
	if err != nil {
		return ListPage{}, err
	}

	params := apiclient.ListParams{}
	if def.Info.ServerPaged {
		params = apiclient.ListParams{
			Page:     max(q.Page, 1),
			PageSize: q.RowsPerPage,
			Search:   q.Search,
			Sort:     q.Sort.Key,
			Dir:      string(q.Sort.Direction),
		}
	}

	res, err := s.api.List(ctx, token, def.Info.Endpoint, params)
	if err != nil {
		return ListPage{}, fmt.Errorf("list %s: %w", key, err)
	}

	rows := toRecords(res.Items)
	if def.Info.ServerPaged && res.Paged {
		return ListPage{Rows: rows, Total: res.Total, Paged: true}, nil
	}

	rows = FilterRecords(rows, def.Columns, q.Search)
	return ListPage{Rows: rows, Total: len(rows)}, nil
}

// AllRecords collects every row of a resource for export, walking pages of
// ServerPaged endpoints up to MaxExportRows.
func (s *Service) AllRecords(ctx context.Context, token, key string, q ListQuery) ([]Record, error) {
	def, err := Lookup(key)
	if err != nil {
		return nil, err
	}
	if !def.Info.ServerPaged {
		page, err := s.ListRecords(ctx, token, key, q)
		return page.Rows, err
	}

	var all []Record
	for page := 1; len(all) < s.cfg.MaxExportRows; page++ {
		res, err := s.api.List(ctx, token, def.Info.Endpoint, apiclient.ListParams{
			Page:     page,
			PageSize: s.cfg.ExportPageSize,
			Search:   q.Search,
			Sort:     q.Sort.Key,
			Dir:      string(q.Sort.Direction),
		})
		if err != nil {
			return nil, fmt.Errorf("export %s page %d: %w", key, page, err)
		}
		all = append(all, toRecords(res.Items)...)
		if !res.Paged || len(res.Items) < s.cfg.ExportPageSize || len(all) >= res.Total {
			break
		}
	}
	if len(all) > s.cfg.MaxExportRows {
		all = all[:s.cfg.MaxExportRows]
	}
	return all, nil
}

// GetRecord fetches one record.
func (s *Service) GetRecord(ctx context.Context, token, key, id string) (Record, error) {
	def, err := Lookup(key)
	if err != nil {
		return nil, err
	}
	rec, err := s.api.Get(ctx, token, def.Info.Endpoint, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", key, id, err)
	}
	return Record(rec), nil
}

// SaveRecord validates form values and creates (id == "") or updates a record.
// Validation failures are returned as ValidationErrors without calling the API.
func (s *Service) SaveRecord(ctx context.Context, token, key, id string, values map[string]string) (Record, error) {
	def, err := Lookup(key)
	if err != nil {
		return nil, err
	}
	if def.Info.ReadOnly {
		return nil, ErrReadOnly
	}

	creating := id == ""
	payload, err := ValidateForm(def.Fields, values, creating)
	if err != nil {
		return nil, err
	}
	if def.Prepare != nil {
		payload = def.Prepare(payload, creating)
	}

	var rec map[string]any
	if creating {
		rec, err = s.api.Create(ctx, token, def.Info.Endpoint, payload)
	} else {
		rec, err = s.api.Update(ctx, token, def.Info.Endpoint, id, payload)
	}
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", key, err)
	}

	slog.InfoContext(ctx, "record saved", "resource", key, "id", id, "created", creating)
	return Record(rec), nil
}

// DeleteRecord removes a record.
func (s *Service) DeleteRecord(ctx context.Context, token, key, id string) error {
	def, err := Lookup(key)
	if err != nil {
		return err
	}
	if def.Info.ReadOnly {
		return ErrReadOnly
	}
	if err := s.api.Delete(ctx, token, def.Info.Endpoint, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", key, id, err)
	}
	slog.InfoContext(ctx, "record deleted", "resource", key, "id", id)
	return nil
}

// RunAction posts a registered row action, e.g. approving a leave request.
func (s *Service) RunAction(ctx context.Context, token, key, id, action string, body Record) (Record, error) {
	def, err := Lookup(key)
	if err != nil {
		return nil, err
	}
	found := false
	for _, a := range def.Actions {
		if a.Name == action {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownResource, key, action)
	}

	path := strings.TrimRight(def.Info.Endpoint, "/") + "/" + id + "/" + action
	rec, err := s.api.Action(ctx, token, path, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", action, key, id, err)
	}
	slog.InfoContext(ctx, "record action", "resource", key, "id", id, "action", action)
	return Record(rec), nil
}

// Leave decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// DecideLeave approves or rejects a leave request with an optional remark.
func (s *Service) DecideLeave(ctx context.Context, token, id, decision, remark string) (Record, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, ValidationErrors{"decision": "must be approve or reject"}
	}
	var body Record
	if remark = strings.TrimSpace(remark); remark != "" {
		body = Record{"remark": remark}
	}
	return s.RunAction(ctx, token, "leave-requests", id, decision, body)
}

// Options lists a resource's records as select options, sorted by label.
func (s *Service) Options(ctx context.Context, token, key, labelField string) ([]Option, error) {
	def, err := Lookup(key)
	if err != nil {
		return nil, err
	}
	res, err := s.api.List(ctx, token, def.Info.Endpoint, apiclient.ListParams{})
	if err != nil {
		return nil, fmt.Errorf("options %s: %w", key, err)
	}

	idField := def.IDField()
	opts := make([]Option, 0, len(res.Items))
	for _, item := range res.Items {
		rec := Record(item)
		label := ""
		if labelField != "" {
			label = rec.Text(labelField)
		}
		if label == "" {
			label = FormatValue(map[string]any(rec))
		}
		opts = append(opts, Option{Value: rec.ID(idField), Label: label})
	}
	sort.SliceStable(opts, func(i, j int) bool {
		return strings.ToLower(opts[i].Label) < strings.ToLower(opts[j].Label)
	})
	return opts, nil
}

// FormOptions loads the select options of every reference field of a
// resource concurrently, keyed by field name.
func (s *Service) FormOptions(ctx context.Context, token string, def Resource) (map[string][]Option, error) {
	out := make(map[string][]Option)
	results := make([][]Option, len(def.Fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range def.Fields {
		if f.Type != FieldReference || f.Ref == "" {
			continue
		}
		g.Go(func() error {
			opts, err := s.Options(gctx, token, f.Ref, f.RefLabel)
			if err != nil {
				return err
			}
			results[i] = opts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, f := range def.Fields {
		if results[i] != nil {
			out[f.Name] = results[i]
		}
	}
	return out, nil
}

// ResourceCount is a dashboard tile.
type ResourceCount struct {
	Info  ResourceInfo
	Count int
	Err   error
}

// Counts fetches the record count of every registered resource concurrently.
// Per-resource failures are reported in ResourceCount.Err.
func (s *Service) Counts(ctx context.Context, token string) ([]ResourceCount, error) {
	defs := All()
	out := make([]ResourceCount, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, def := range defs {
		out[i].Info = def.Info
		g.Go(func() error {
			params := apiclient.ListParams{}
			if def.Info.ServerPaged {
				params = apiclient.ListParams{Page: 1, PageSize: 1}
			}
			res, err := s.api.List(gctx, token, def.Info.Endpoint, params)
			if err != nil {
				out[i].Err = err
				// An expired token fails every tile; stop early.
				if errors.Is(err, apiclient.ErrUnauthorized) {
					return err
				}
				return nil
			}
			out[i].Count = res.Total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusOf returns the HTTP status of an API error, or 0.
func StatusOf(err error) int {
	return apiclient.StatusOf(err)
}

// AttendanceInput is a check-in or check-out submission.
type AttendanceInput struct {
	Latitude  string
	Longitude string
	Note      string
	Photo     io.Reader
	PhotoName string
	At        time.Time
}

// CheckIn records an attendance check-in.
func (s *Service) CheckIn(ctx context.Context, token string, in AttendanceInput) (Record, error) {
	return s.attendance(ctx, token, "check-in", in)
}

// CheckOut records an attendance check-out.
func (s *Service) CheckOut(ctx context.Context, token string, in AttendanceInput) (Record, error) {
	return s.attendance(ctx, token, "check-out", in)
}

func (s *Service) attendance(ctx context.Context, token, kind string, in AttendanceInput) (Record, error) {
	errs := ValidationErrors{}
	fields := map[string]string{}
	for name, raw := range map[string]string{"latitude": in.Latitude, "longitude": in.Longitude} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, ok := ParseNumber(raw); !ok {
			errs.Add(name, "must be a number")
			continue
		}
		fields[name] = raw
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		fields["note"] = note
	}
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	fields["timestamp"] = at.Format(time.RFC3339)

	var files []apiclient.File
	if in.Photo != nil {
		name := in.PhotoName
		if name == "" {
			name = "photo.jpg"
		}
		files = append(files, apiclient.File{Field: "photo", Name: name, Content: in.Photo})
	}

	path := strings.TrimRight(s.cfg.AttendanceEndpoint, "/") + "/" + kind
	rec, err := s.api.PostMultipart(ctx, token, path, fields, files...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	slog.InfoContext(ctx, "attendance recorded", "kind", kind)
	return Record(rec), nil
}

// RecentAttendance lists the latest attendance entries, newest first.
func (s *Service) RecentAttendance(ctx context.Context, token string, limit int) ([]Record, error) {
	res, err := s.api.List(ctx, token, s.cfg.AttendanceEndpoint, apiclient.ListParams{
		Page: 1, PageSize: limit, Sort: "date", Dir: string(datatable.Desc),
	})
	if err != nil {
		return nil, fmt.Errorf("recent attendance: %w", err)
	}
	rows := toRecords(res.Items)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// OrgTree fetches the organisation hierarchy.
func (s *Service) OrgTree(ctx context.Context, token string) ([]OrgNode, error) {
	doc, err := s.api.Raw(ctx, token, s.cfg.OrgEndpoint)
	if err != nil {
		return nil, fmt.Errorf("organization tree: %w", err)
	}
	return BuildOrgTree(doc), nil
}

// FilterRecords keeps rows where any column's display text contains search,
// case-insensitively. An empty search returns rows unchanged.
func FilterRecords(rows []Record, cols []datatable.Column[Record], search string) []Record {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return rows
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		for _, c := range cols {
			if c.Key == datatable.ActionKey {
				continue
			}
			if strings.Contains(strings.ToLower(r.Text(c.Key)), search) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func toRecords(items []map[string]any) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = Record(it)
	}
	return out
}
