// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"log/slog"
)

// BootedMessage is logged once all stages ran without fatal failure.
const BootedMessage = "EnclaveOS booted"

// Run is the entry point for the actual init system.
//
// It boots the system on [Linux] with [Boot]. It never returns, unless the
// process does not have PID 1 or the final reboot failed.
func Run(cfg Config, platform Platform, logger *slog.Logger) error {
	if !IsPidOne() {
		return ErrNotPidOne
	}

	Boot(cfg, Linux{}, platform, logger)

	return errors.New("system did not reboot")
}

// Boot runs the boot sequence once and reboots the system.
//
// The stages run in this order: mounts, console, platform attestation,
// entropy seeding and, if enabled, the loopback network interface. Every
// failure is logged. In [ModeRelease] a failing critical stage (attestation
// and entropy) ends the boot right away with [OutcomeFatal]. Otherwise all
// stages run, [BootedMessage] is logged and the [Config.Handoff] runs.
//
// Whatever the outcome, the system is rebooted afterwards. Boot returns
// only if the reboot returned.
func Boot(cfg Config, sys System, platform Platform, logger *slog.Logger) Outcome {
	logger.Info("booting", "platform", platform.Name(), "mode", cfg.Mode)

	outcome := runStages(Stages(cfg, sys, platform, logger), cfg.Mode, logger)
	if outcome == OutcomeHandoff {
		logger.Info(BootedMessage)
		handoff(cfg.Handoff, logger)
	}

	sys.Sync()

	if err := sys.Reboot(); err != nil {
		logger.Error(err.Error())
	}

	return outcome
}

// Stages returns the boot stages for the given config.
func Stages(cfg Config, sys System, platform Platform, logger *slog.Logger) []Stage {
	stages := []Stage{
		{
			Name: StageMount,
			Run: func() error {
				return MountAll(sys, cfg.Mounts, logger)
			},
		},
		{
			Name: StageConsole,
			Run: func() error {
				return RedirectConsoles(sys, cfg.Consoles)
			},
		},
		{
			Name:     StageAttestation,
			Critical: true,
			Run: func() error {
				if err := platform.Attest(); err != nil {
					return err
				}

				logger.Info("attested platform " + platform.Name())

				return nil
			},
		},
		{
			Name:     StageEntropy,
			Critical: true,
			Run: func() error {
				return seedKernel(cfg, sys, platform, logger)
			},
		},
	}

	if cfg.Loopback {
		stages = append(stages, Stage{
			Name: StageNetwork,
			Run: func() error {
				if err := sys.SetLinkUp(LoopbackInterface); err != nil {
					return fmt.Errorf("%w: %w", ErrLink, err)
				}

				return nil
			},
		})
	}

	return stages
}

func seedKernel(cfg Config, sys System, platform Platform, logger *slog.Logger) error {
	sample, err := platform.SampleEntropy(cfg.EntropySize)
	if errors.Is(err, ErrNoEntropySource) {
		logger.Info("no entropy source on platform " + platform.Name() + ", seeding skipped")
		return nil
	} else if err != nil {
		return err
	}

	written, err := SeedEntropy(sys, cfg.RandomDevice, sample)
	if err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("seeded kernel with entropy: %d bytes", written))

	return nil
}

// runStages runs the given stages in order and returns [OutcomeFatal] as soon
// as a stage fails that is fatal in the given mode.
func runStages(stages []Stage, mode Mode, logger *slog.Logger) Outcome {
	for _, stage := range stages {
		bootErr := runStage(stage)
		if bootErr == nil {
			continue
		}

		for _, err := range errorList(bootErr.Err) {
			logger.Error(stageError(stage.Name, err).Error())
		}

		if mode.IsFatal(stage) {
			logger.Error("unable to recover from " + stage.Name + " failure, rebooting")
			return OutcomeFatal
		}
	}

	return OutcomeHandoff
}

func runStage(stage Stage) (bootErr *BootError) {
	defer func() {
		if rec := recover(); rec != nil {
			bootErr = &BootError{Stage: stage.Name, Err: recoveredError(rec)}
		}
	}()

	if err := stage.Run(); err != nil {
		return &BootError{Stage: stage.Name, Err: err}
	}

	return nil
}

func handoff(fn HandoffFunc, logger *slog.Logger) {
	if fn == nil {
		return
	}

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = recoveredError(rec)
			}
		}()

		return fn()
	}()
	if err != nil {
		logger.Error("handoff: " + err.Error())
		return
	}

	logger.Info("handoff finished")
}

func recoveredError(rec any) error {
	if recoveredErr, ok := rec.(error); ok {
		return fmt.Errorf("%w: %w", ErrPanic, recoveredErr)
	}

	return fmt.Errorf("%w: %v", ErrPanic, rec)
}
