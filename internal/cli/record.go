// ABOUTME: Record command
// ABOUTME: Runs a recording session until interrupted
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sessioncast/audiograph/pkg/recorder"
)

var (
	recordDuration time.Duration
	recordBalance  int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a session to a WAV file",
	Long: `Starts a recording session with the configured inputs and runs
until interrupted (Ctrl-C) or until --duration elapses. The mix
balance and silence detection come from the config file unless
overridden by flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := cfg.RecorderConfig()
		if cmd.Flags().Changed("balance") {
			if recordBalance < 0 || recordBalance > 100 {
				return fmt.Errorf("balance %d outside [0, 100]", recordBalance)
			}
			rc.Balance = uint8(recordBalance)
		}

		rec, err := recorder.New(rc)
		if err != nil {
			return err
		}
		session, err := rec.Start()
		if err != nil {
			return err
		}
		logrus.WithField("session", session).Info("Recording, press Ctrl-C to stop")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		var timeout <-chan time.Time
		if recordDuration > 0 {
			timeout = time.After(recordDuration)
		}
		status := time.NewTicker(5 * time.Second)
		defer status.Stop()

	loop:
		for {
			select {
			case <-sig:
				break loop
			case <-timeout:
				break loop
			case <-status.C:
				st := rec.Status()
				if !st.Healthy {
					logrus.WithError(st.Err).Error("Session unhealthy, stopping")
					break loop
				}
				logrus.WithFields(logrus.Fields{
					"elapsed":       st.Elapsed.Round(time.Second),
					"silent":        st.Silent,
					"silence_ratio": fmt.Sprintf("%.2f", st.SilenceRatio),
				}).Info("Recording")
			}
		}

		path, err := rec.Stop()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "stop after this long (0 = until interrupted)")
	recordCmd.Flags().IntVarP(&recordBalance, "balance", "b", 50, "mix balance: 0 = all microphone, 100 = all system audio")
	rootCmd.AddCommand(recordCmd)
}
