package checks

import (
	"context"
	"strings"
	"time"

	"github.com/lovpen/lovpen-server/internal/app/maintenance"
	"github.com/lovpen/lovpen-server/internal/monitoring"
)

const defaultMaintenanceMaxAge = 6 * time.Hour

// JobReporter exposes maintenance job history.
type JobReporter interface {
	Jobs() []maintenance.JobStatus
}

// Maintenance reports down while any job is failing repeatedly and degraded
// when a job has not run within maxAge. Zero maxAge selects six hours.
func Maintenance(reporter JobReporter, maxAge time.Duration, now func() time.Time) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}
	if now == nil {
		now = time.Now
	}

	return monitoring.NewCheck("maintenance", func(context.Context) monitoring.ProbeResult {
		if reporter == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "maintenance disabled"}
		}

		status := monitoring.StatusUp
		var problems []string
		current := now()
		for _, job := range reporter.Jobs() {
			if job.ConsecutiveFailures > 0 {
				status = monitoring.StatusDown
				problems = append(problems, job.Job+": "+job.LastError)
				continue
			}
			if current.Sub(job.LastRunAt) > maxAge {
				if status == monitoring.StatusUp {
					status = monitoring.StatusDegraded
				}
				problems = append(problems, job.Job+": last run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{Status: status, Details: strings.Join(problems, "; ")}
	})
}
