package scenario

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// SchedulingOnDemand is the only scheduling type that can be triggered by a caller.
const SchedulingOnDemand = "on-demand"

type Scheduling struct {
	Type     string `json:"type"`
	Interval int    `json:"interval,omitempty"`
}

// Scenario is a remote workflow as returned by the automation platform.
type Scenario struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	TeamID      int64      `json:"teamId,omitempty"`
	IsActive    bool       `json:"isActive,omitempty"`
	IsPaused    bool       `json:"isPaused,omitempty"`
	Scheduling  Scheduling `json:"scheduling"`
}

// OnDemand reports whether the scenario can be run synchronously.
func (s *Scenario) OnDemand() bool {
	return s.Scheduling.Type == SchedulingOnDemand
}

// FilterOnDemand keeps on-demand scenarios in their original order.
func FilterOnDemand(scenarios []Scenario) []Scenario {
	out := make([]Scenario, 0, len(scenarios))
	for i := range scenarios {
		if scenarios[i].OnDemand() {
			out = append(out, scenarios[i])
		}
	}
	return out
}

// Interface is the declared input and output shape of a scenario.
type Interface struct {
	Input  []Field `json:"input"`
	Output []Field `json:"output,omitempty"`
}

// Execution is the handle returned when a run is triggered.
type Execution struct {
	ExecutionID string `json:"executionId"`
	Status      Status `json:"status,omitempty"`
	StatusURL   string `json:"statusUrl,omitempty"`
}

// Status is the optional run status reported by the trigger call. The
// platform sends it as a number or a string depending on the run mode.
type Status string

func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Status(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = Status(n.String())
	return nil
}

// Code returns the status as an integer when it is numeric.
func (s Status) Code() (int, bool) {
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
