// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or set device config",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [field] [value]",
	Short: "Set a config field (e.g. brightness 20, rotation 90)",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runConfigSet,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump raw config bytes (hex)",
	RunE:  runConfigDump,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDumpCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	config, err := s.ReadConfig()
	if err != nil {
		return err
	}
	fmt.Println(hubproto.FormatConfig(config))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		printConfigFields()
		return nil
	}
	field, value := args[0], args[1]

	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	config, err := s.ReadConfig()
	if err != nil {
		return err
	}
	if err := config.Set(field, value); err != nil {
		return err
	}
	if err := s.WriteConfig(config); err != nil {
		return err
	}
	fmt.Printf("Set %s = %s\n", field, value)
	return nil
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	config, err := s.ReadConfig()
	if err != nil {
		return err
	}
	for i, b := range config.Bytes() {
		if i > 0 && i%16 == 0 {
			fmt.Println()
		}
		fmt.Printf("%02x ", b)
	}
	fmt.Println()
	return nil
}

func printConfigFields() {
	fmt.Println("Available config fields:")
	fmt.Println("  brightness <0-30>         Screen brightness")
	fmt.Println("  rotation <0|90|180|270>   Screen rotation")
	fmt.Println("  interval <seconds>        Image switch interval")
	fmt.Println("  random <0|1>              Random image order")
	fmt.Println("  crop <0|1>                Crop to fill (1) or letterbox (0)")
	fmt.Println("  shake_sens <0-255>        Shake sensitivity")
	fmt.Println("  screen_onoff_by_usb <0|1> Screen on/off with USB")
	fmt.Println("  power_style <0-255>       Power display style")
	fmt.Println("  srgb_style <0-255>        sRGB style")
	fmt.Println("  switch_mode <0-65535>     Image switch mode")
	fmt.Println("  page <0-255>              Memory page")
}
