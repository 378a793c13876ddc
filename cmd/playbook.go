package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"aos8ctl/pkg/aos8"
	"aos8ctl/pkg/resource"
	"aos8ctl/pkg/task"
)

// aos8PlaybookTemplate runs each task file through the matching network
// resource module of the alcatel.aos8 collection.
const aos8PlaybookTemplate = `- name: {{ .Name }}
  hosts: {{ .Hosts }}
  gather_facts: no
  connection: ansible.netcommon.network_cli

  tasks:
{{- range .Tasks }}
    - name: {{ .State | title }} {{ .Resource }} ({{ .File }})
      alcatel.aos8.aos8_{{ .Resource }}:
{{- if .Config.Len }}
        config:
{{ toYaml .Config | trim | indent 10 }}
{{- end }}
{{- if .RunningConfig }}
        running_config: |
{{ .RunningConfig | trim | indent 10 }}
{{- end }}
        state: {{ .State }}
{{- if .FlashSynchro }}

    - name: Save and synchronize ({{ .File }})
      alcatel.aos8.aos8_command:
        commands:
          - {{ $.FlashSynchro }}
{{- end }}
{{- end }}
`

var (
	playbookOut   string
	playbookHosts string
	playbookName  string
)

type playbookTask struct {
	File          string
	Resource      string
	State         string
	Config        resource.RecordSet
	RunningConfig string
	FlashSynchro  bool
}

var playbookCmd = &cobra.Command{
	Use:   "playbook TASK...",
	Short: "Render task files as an Ansible playbook for the alcatel.aos8 collection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := renderPlaybook(args)
		if err != nil {
			return err
		}
		if playbookOut == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		}
		if err := os.WriteFile(playbookOut, []byte(text), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Playbook written to %s\n", playbookOut)
		return nil
	},
}

// renderPlaybook validates every task file and renders them in order.
func renderPlaybook(paths []string) (string, error) {
	var tasks []playbookTask
	for _, path := range paths {
		t, err := task.Load(path)
		if err != nil {
			return "", err
		}
		m, err := aos8.Lookup(t.Resource)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		if err := m.Validate(t.Request()); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		st := t.State
		if st == "" {
			st = resource.Merged
		}
		desired, err := m.Schema.Desired(t.Config, st)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		tasks = append(tasks, playbookTask{
			File:          filepath.Base(path),
			Resource:      t.Resource,
			State:         string(st),
			Config:        desired,
			RunningConfig: t.RunningConfig,
			FlashSynchro:  t.FlashSynchro,
		})
	}

	tmpl, err := template.New("playbook").Funcs(sprig.TxtFuncMap()).Funcs(template.FuncMap{
		"toYaml": toYaml,
	}).Parse(aos8PlaybookTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse playbook template: %w", err)
	}
	var b bytes.Buffer
	err = tmpl.Execute(&b, struct {
		Name         string
		Hosts        string
		FlashSynchro string
		Tasks        []playbookTask
	}{playbookName, playbookHosts, task.FlashSynchro, tasks})
	if err != nil {
		return "", fmt.Errorf("failed to render playbook: %w", err)
	}
	return b.String(), nil
}

// toYaml marshals v with the two-space indent used in playbooks.
func toYaml(v any) (string, error) {
	if rs, ok := v.(resource.RecordSet); ok && rs.Len() == 0 {
		return "[]", nil
	}
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func init() {
	playbookCmd.Flags().StringVarP(&playbookOut, "out", "o", "", "Write the playbook to this file instead of stdout")
	playbookCmd.Flags().StringVar(&playbookHosts, "hosts", "all", "Inventory pattern the play targets")
	playbookCmd.Flags().StringVar(&playbookName, "name", "Reconcile AOS8 VLANs", "Play name")
	rootCmd.AddCommand(playbookCmd)
}
