package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fleetline/backoffice/internal/jobs"
	"github.com/fleetline/backoffice/internal/rbac"
)

// RoleSource lists stored roles; *rbac.Registry satisfies it.
type RoleSource interface {
	ListRoles(ctx context.Context) ([]rbac.Role, error)
}

// DriftReport describes how one stored role differs from the fallback entry
// that would replace it when live fetches fail.
type DriftReport struct {
	Role    string
	Alias   string
	Matched bool
	Missing []string
	Extra   []string
}

// Drifted reports whether any key differs.
func (r DriftReport) Drifted() bool {
	return len(r.Missing) > 0 || len(r.Extra) > 0
}

// FallbackDriftJob audits the fallback table against stored roles. It only
// reports; it never changes roles or the table.
type FallbackDriftJob struct {
	Roles    RoleSource
	Fallback *rbac.FallbackTable
	Catalog  *rbac.Catalog
	Logger   *slog.Logger
	Metrics  *rbac.Metrics
	Jobs     *jobmetrics.Metrics
}

// Handle executes the drift audit for an asynq task.
func (j *FallbackDriftJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("fallback drift: handler not configured")
	}
	var payload FallbackDriftPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Jobs.Track(TaskRBACFallbackDrift)
	reports, err := j.Audit(ctx, payload.Role)
	if err != nil {
		j.logger().Error("fallback drift audit failed", slog.Any("error", err))
		return tracker.End(err)
	}
	drifted := 0
	for _, report := range reports {
		if report.Drifted() {
			drifted++
		}
	}
	j.logger().Info("completed fallback drift audit",
		slog.Int("roles", len(reports)),
		slog.Int("drifted", drifted))
	return tracker.End(nil)
}

// Audit compares every stored role, or only the named one, with its fallback
// entry. Admin is skipped because it never resolves through the table.
func (j *FallbackDriftJob) Audit(ctx context.Context, only string) ([]DriftReport, error) {
	if j.Roles == nil || j.Fallback == nil {
		return nil, errors.New("fallback drift: roles and fallback table required")
	}
	if j.Catalog != nil {
		if unknown := j.Fallback.UnknownKeys(j.Catalog); len(unknown) > 0 {
			return nil, fmt.Errorf("fallback drift: table grants unknown keys %s", strings.Join(unknown, ", "))
		}
	}
	roles, err := j.Roles.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("fallback drift: list roles: %w", err)
	}

	var reports []DriftReport
	for _, role := range roles {
		if role.IsAdmin() {
			continue
		}
		if only != "" && rbac.NormalizeRoleName(only) != rbac.NormalizeRoleName(role.Name) {
			continue
		}
		report, err := j.compare(role)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
		j.Metrics.ObserveDrift(role.Name, len(report.Missing)+len(report.Extra))
		if report.Drifted() {
			j.logger().Warn("fallback entry drifted from stored role",
				slog.String("role", role.Name),
				slog.String("alias", report.Alias),
				slog.Bool("matched", report.Matched),
				slog.Any("missing", report.Missing),
				slog.Any("extra", report.Extra))
		}
	}
	return reports, nil
}

func (j *FallbackDriftJob) compare(role rbac.Role) (DriftReport, error) {
	alias := role.DisplayName
	if strings.TrimSpace(alias) == "" {
		alias = role.Name
	}
	fallback, matched, err := j.Fallback.Lookup(alias)
	if err != nil {
		return DriftReport{}, err
	}
	live := make(map[string]struct{}, len(role.Permissions))
	for _, key := range role.Permissions {
		live[rbac.NormalizeKey(key)] = struct{}{}
	}
	table := make(map[string]struct{}, len(fallback))
	for _, key := range fallback {
		table[key] = struct{}{}
	}

	report := DriftReport{Role: role.Name, Alias: alias, Matched: matched}
	for key := range live {
		if _, ok := table[key]; !ok {
			report.Missing = append(report.Missing, key)
		}
	}
	for key := range table {
		if _, ok := live[key]; !ok {
			report.Extra = append(report.Extra, key)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Extra)
	return report, nil
}

func (j *FallbackDriftJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
