// Package spool ingests task manifests from a watched directory.
//
// In standalone mode the coordinator has no external scheduler calling
// Enqueue, so manifests dropped into the spool directory stand in for
// one: each YAML file describes one workflow run's ready attempts, and
// the watcher enqueues them as files appear. A processed manifest is
// renamed with a ".done" suffix so a restart does not ingest it twice.
package spool

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/halverson/dispatch/internal/task"
)

// Manifest is one workflow run's worth of ready-to-run attempts.
type Manifest struct {
	WorkflowID string         `yaml:"workflow_id"`
	RunAt      time.Time      `yaml:"run_at"`
	Tasks      []ManifestTask `yaml:"tasks"`
}

// ManifestTask describes one attempt within a manifest.
type ManifestTask struct {
	TaskID   string   `yaml:"task_id"`
	Attempt  int      `yaml:"attempt"`
	Priority int      `yaml:"priority"`
	Queue    string   `yaml:"queue"`
	Command  []string `yaml:"command"`
}

// ParseManifest reads and validates a manifest file, returning the
// attempts it describes.
func ParseManifest(path string) ([]*task.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if m.WorkflowID == "" {
		return nil, fmt.Errorf("manifest %s: missing workflow_id", path)
	}
	if m.RunAt.IsZero() {
		return nil, fmt.Errorf("manifest %s: missing run_at", path)
	}
	if len(m.Tasks) == 0 {
		return nil, fmt.Errorf("manifest %s: no tasks", path)
	}

	instances := make([]*task.Instance, 0, len(m.Tasks))
	for i, mt := range m.Tasks {
		if mt.TaskID == "" {
			return nil, fmt.Errorf("manifest %s: task %d missing task_id", path, i)
		}
		attempt := mt.Attempt
		if attempt == 0 {
			attempt = 1
		}
		instances = append(instances, &task.Instance{
			Key:      task.NewInstanceKey(m.WorkflowID, mt.TaskID, m.RunAt, attempt),
			Priority: mt.Priority,
			Queue:    mt.Queue,
			Command:  mt.Command,
		})
	}
	return instances, nil
}
