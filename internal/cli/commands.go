package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/catchlottery/internal/crypto"
	"github.com/pfrederiksen/catchlottery/internal/format"
	"github.com/pfrederiksen/catchlottery/internal/lottery"
	"github.com/pfrederiksen/catchlottery/internal/storage"
)

var (
	flagAt   string
	flagSort string
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the effective draw day and the lottery types drawn on it",
		Args:  cobra.NoArgs,
		RunE:  runSchedule,
	}
	cmd.Flags().StringVar(&flagAt, "at", "", "Evaluate at this RFC3339 time instead of now")
	return cmd
}

// ScheduleOutput describes the effective draw day at a point in time
type ScheduleOutput struct {
	EvaluatedAt   time.Time `json:"evaluated_at"`
	EffectiveDay  string    `json:"effective_day"`
	EffectiveDate string    `json:"effective_date"`
	EraDate       string    `json:"era_date"`
	Scheduled     []string  `json:"scheduled"`
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	outFormat, err := ParseOutputFormat(flagFormat)
	if err != nil {
		return usageError(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return usageError(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return usageError(err)
	}
	tables, err := loadTables(cfg)
	if err != nil {
		return usageError(err)
	}

	at := now()
	if flagAt != "" {
		at, err = time.Parse(time.RFC3339, flagAt)
		if err != nil {
			return usageError(fmt.Errorf("invalid --at: %w", err))
		}
	}
	at = at.In(loc)

	eff := lottery.Resolve(at)
	scheduled, _ := tables.Scheduled(eff.Day)
	if scheduled == nil {
		scheduled = []string{}
	}

	out := &ScheduleOutput{
		EvaluatedAt:   at,
		EffectiveDay:  eff.Day.String(),
		EffectiveDate: eff.Date.Format("2006-01-02"),
		EraDate:       lottery.EraDate(eff.Date),
		Scheduled:     scheduled,
	}

	if outFormat == FormatJSON {
		if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
			return runtimeError(err)
		}
		return nil
	}
	writeScheduleText(cmd.OutOrStdout(), out)
	return nil
}

func writeScheduleText(w io.Writer, out *ScheduleOutput) {
	codes := "none"
	if len(out.Scheduled) > 0 {
		codes = strings.Join(out.Scheduled, ", ")
	}
	fmt.Fprintf(w, "Evaluated at:  %s\n", out.EvaluatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Effective day: %s\n", out.EffectiveDay)
	fmt.Fprintf(w, "Draw date:     %s (%s)\n", out.EffectiveDate, out.EraDate)
	fmt.Fprintf(w, "Scheduled:     %s\n", codes)
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved lottery results",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
	cmd.Flags().StringVar(&flagSort, "sort", "rank", "Sort order: rank, name or period")
	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	outFormat, err := ParseOutputFormat(flagFormat)
	if err != nil {
		return usageError(err)
	}
	order, err := ParseSortOrder(flagSort)
	if err != nil {
		return usageError(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return usageError(err)
	}
	tables, err := loadTables(cfg)
	if err != nil {
		return usageError(err)
	}
	formatter, err := format.New(cfg.Delimiter.Info, cfg.Delimiter.Number)
	if err != nil {
		return usageError(err)
	}
	store, err := storage.New(cfg.Output, formatter)
	if err != nil {
		return usageError(err)
	}

	records, err := store.Load()
	if err != nil {
		return runtimeError(err)
	}

	fillTypeCodes(tables, records)
	sortRecords(records, order)

	if err := WriteRecords(cmd.OutOrStdout(), records, outFormat); err != nil {
		return runtimeError(err)
	}
	return nil
}

// fillTypeCodes restores type codes from the sort ranks the saved file carries
func fillTypeCodes(tables *lottery.Tables, records []lottery.DrawRecord) {
	byRank := make(map[int]string)
	for _, t := range tables.Types() {
		byRank[t.SortRank] = t.Code
	}
	for i := range records {
		if records[i].TypeCode == "" {
			records[i].TypeCode = byRank[records[i].SortRank]
		}
	}
}

func newEncryptSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt-secret VALUE",
		Short: "Encrypt a secret for the config file with secret_key",
		Long: `Encrypts VALUE with the configured secret_key (or CATCHLOTTERY_SECRET_KEY) and
prints it with the enc: prefix. Encrypted values are accepted for mail.password,
telegram.bot_token and the twitter credentials.`,
		Args: cobra.ExactArgs(1),
		RunE: runEncryptSecret,
	}
}

func runEncryptSecret(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return usageError(err)
	}

	enc := crypto.NewEncryptor(cfg.SecretKey)
	if enc == nil {
		return usageError(fmt.Errorf("secret_key is not configured (set it in the config file or CATCHLOTTERY_SECRET_KEY)"))
	}

	value, err := enc.Encrypt(args[0])
	if err != nil {
		return runtimeError(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}
