package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/checker"
	"github.com/ludo-technologies/seqgate/service"
)

// checkerInfo describes a checker the way rule files refer to it
type checkerInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Direction   string   `json:"direction,omitempty" yaml:"direction,omitempty"`
	Required    []string `json:"required_params" yaml:"required_params"`
	Optional    []string `json:"optional_params,omitempty" yaml:"optional_params,omitempty"`
}

// ruleKey maps checker parameter names to rule file keys
func ruleKey(param string) string {
	switch param {
	case domain.ParamErrorThreshold:
		return "error"
	case domain.ParamWarningThreshold:
		return "warning"
	}
	return param
}

func describeCheckers() []checkerInfo {
	all := checker.All()
	infos := make([]checkerInfo, 0, len(all))
	for _, c := range all {
		info := checkerInfo{
			Name:        c.Name,
			Description: c.Description,
			Direction:   string(c.Direction),
			Required:    []string{},
		}
		for _, p := range c.Params {
			if p.Required {
				info.Required = append(info.Required, ruleKey(p.Name))
			} else {
				info.Optional = append(info.Optional, ruleKey(p.Name))
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func checkersCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "checkers",
		Short: "List the available QC checkers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := describeCheckers()
			w := cmd.OutOrStdout()

			switch domain.OutputFormat(format) {
			case domain.OutputFormatJSON:
				return service.WriteJSON(w, infos)
			case domain.OutputFormatYAML:
				return service.WriteYAML(w, infos)
			case domain.OutputFormatText:
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tDIRECTION\tPARAMETERS\tDESCRIPTION")
				for _, info := range infos {
					params := strings.Join(info.Required, ", ")
					if len(info.Optional) > 0 {
						params += " [" + strings.Join(info.Optional, ", ") + "]"
					}
					direction := info.Direction
					if direction == "" {
						direction = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, direction, params, info.Description)
				}
				return tw.Flush()
			default:
				return domain.NewUnsupportedFormatError(format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml")
	return cmd
}
