// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package cmds

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/ironcore-dev/cpuinfo-collector/internal/boardid"
	"github.com/ironcore-dev/cpuinfo-collector/internal/decode"
	"github.com/ironcore-dev/cpuinfo-collector/internal/topology"
)

type ppinResult struct {
	PPIN         string `json:"ppin"`
	Lot          string `json:"lot"`
	Month        string `json:"month"`
	Year         uint32 `json:"year"`
	DeviceNumber string `json:"deviceNumber"`
	SerialNumber string `json:"serialNumber"`
}

type identificationResult struct {
	EffectiveFamily string `json:"effectiveFamily"`
	Family          string `json:"family"`
	EffectiveModel  string `json:"effectiveModel"`
	Model           string `json:"model"`
	Step            string `json:"step"`
}

type boardResult struct {
	BoardID  string `json:"boardID"`
	Platform string `json:"platform"`
	Sockets  int    `json:"sockets"`
}

func NewDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decodes raw register values offline",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "ppin <value>",
			Short: "Decodes a 64-bit PPIN into its serial number",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := strconv.ParseUint(args[0], 0, 64)
				if err != nil {
					return fmt.Errorf("invalid PPIN %q: %w", args[0], err)
				}
				dc := decode.DateCode(p)
				return printYAML(cmd.OutOrStdout(), ppinResult{
					PPIN:         decode.FormatPPIN(p),
					Lot:          decode.Lot(p),
					Month:        decode.MonthCode(dc/10 + 1),
					Year:         dc % 10,
					DeviceNumber: fmt.Sprintf("%04d", decode.DeviceNumber(p)),
					SerialNumber: decode.Serial(p),
				})
			},
		},
		&cobra.Command{
			Use:   "cpuid <eax>",
			Short: "Decodes the EAX word of CPUID function 1",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				eax, err := strconv.ParseUint(args[0], 0, 32)
				if err != nil {
					return fmt.Errorf("invalid EAX value %q: %w", args[0], err)
				}
				id := decode.DecodeIdentification(uint32(eax))
				return printYAML(cmd.OutOrStdout(), identificationResult{
					EffectiveFamily: decode.FormatHexDec(id.Family()),
					Family:          decode.FormatHexDec(id.BaseFamily),
					EffectiveModel:  decode.FormatHexDec(id.Model()),
					Model:           decode.FormatHexDec(id.BaseModel),
					Step:            decode.FormatHexDec(id.Step),
				})
			},
		},
		&cobra.Command{
			Use:   "board <id>",
			Short: "Resolves a board id to its platform and socket count",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := boardid.Parse(args[0])
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), boardResult{
					BoardID:  fmt.Sprintf("0x%02x", id),
					Platform: topology.PlatformName(id),
					Sockets:  topology.Resolve(id),
				})
			},
		},
	)
	return cmd
}

func printYAML(out io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
