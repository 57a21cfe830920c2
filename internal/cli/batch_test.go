package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/domain/review"
)

// seasonLog has a walk-off in game 1 and a scoreless tie in game 2.
const seasonLog = `Game ID,Inning,Batter Team,Pitcher Team,Pitcher ID,Exact Result,Session
1,T1,AWY,HOM,h1,K,1
1,T1,AWY,HOM,h1,K,1
1,T1,AWY,HOM,h1,K,1
1,B1,HOM,AWY,a1,HR,1
2,T1,AWY,HOM,h2,K,2
2,T1,AWY,HOM,h2,K,2
2,T1,AWY,HOM,h2,K,2
2,B1,HOM,AWY,a2,K,2
2,B1,HOM,AWY,a2,K,2
2,B1,HOM,AWY,a2,K,2
`

// writeFixture lays out a config, manifest and one season log and returns the config path.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"s5.csv": seasonLog,
		"seasons.yaml": `seasons:
  - season: S5
    era: 5
    regular_season_games: 10
    file: s5.csv
`,
		"config.yaml": "manifest: " + filepath.Join(dir, "seasons.yaml") + "\n" +
			"db_path: " + filepath.Join(dir, "ledger.db") + "\n" +
			"worker_count: 2\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return filepath.Join(dir, "config.yaml")
}

func TestDecideCommand(t *testing.T) {
	cfgPath := writeFixture(t)

	buf := &bytes.Buffer{}
	cmd := NewDecideCommand(&RootOptions{Format: "json", Config: cfgPath})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string        `json:"status"`
		Data   []SeasonLines `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	s := resp.Data[0]
	assert.Equal(t, "S5", s.Summary.Season)
	assert.Equal(t, 2, s.Summary.Games)
	assert.Equal(t, 1, s.Summary.Flagged)

	wins := map[string]int{}
	losses := map[string]int{}
	for _, l := range s.Lines {
		wins[l.PitcherID] = l.Wins
		losses[l.PitcherID] = l.Losses
	}
	assert.Equal(t, 1, wins["h1"])
	assert.Equal(t, 1, losses["a1"])
	assert.Zero(t, wins["h2"])
}

func TestDecideCommandText(t *testing.T) {
	cfgPath := writeFixture(t)

	buf := &bytes.Buffer{}
	cmd := NewDecideCommand(&RootOptions{Format: "text", Config: cfgPath})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"S5"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "PITCHER")
	var h1 []string
	for _, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) > 0 && f[0] == "h1" {
			h1 = f
		}
	}
	assert.Equal(t, []string{"h1", "1", "0", "0", "0"}, h1)
}

func TestDecideCommandUnknownSeason(t *testing.T) {
	cmd := NewDecideCommand(&RootOptions{Format: "text", Config: writeFixture(t)})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"S99"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSweepCommand(t *testing.T) {
	cfgPath := writeFixture(t)

	t.Run("flagged games exit 1", func(t *testing.T) {
		buf := &bytes.Buffer{}
		cmd := NewSweepCommand(&RootOptions{Format: "json", Config: cfgPath})
		cmd.SetOut(buf)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{})
		cmd.SilenceUsage = true

		err := cmd.Execute()
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp struct {
			Status string        `json:"status"`
			Data   []review.Flag `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "2", resp.Data[0].Key.GameID)
		assert.Equal(t, review.ReasonTied, resp.Data[0].Reason)
	})

	t.Run("reason filter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		cmd := NewSweepCommand(&RootOptions{Format: "text", Config: cfgPath})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{"--reason", "invalid"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, buf.String(), "no games flagged")
	})
}

func TestScoresCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewScoresCommand(&RootOptions{Format: "json", Config: writeFixture(t)})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"S5"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []service.GameResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "1", resp.Data[0].Key.GameID)
	assert.Equal(t, 1, resp.Data[0].HomeScore)
	assert.Equal(t, "HOM", resp.Data[0].Home)
	assert.Equal(t, "h1", resp.Data[0].Decision.Win)
	assert.Equal(t, "tied", resp.Data[1].Status)
}

func TestScoresCommandNeedsSeason(t *testing.T) {
	cmd := NewScoresCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func TestTraceCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json", Config: writeFixture(t)})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"S5", "1"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data struct {
			HomeScore int `json:"home_score"`
			Trace     []struct {
				Inning      string `json:"inning"`
				PitcherID   string `json:"pitcher_id"`
				Code        string `json:"code"`
				BasesBefore string `json:"bases_before"`
				BasesAfter  string `json:"bases_after"`
				OutsBefore  int    `json:"outs_before"`
				Outs        int    `json:"outs"`
				Runs        int    `json:"runs"`
				HomeScore   int    `json:"home_score"`
				AwayScore   int    `json:"away_score"`
			} `json:"trace"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Trace, 4)

	for i, st := range resp.Data.Trace[:3] {
		assert.Equal(t, "T1", st.Inning)
		assert.Equal(t, "h1", st.PitcherID)
		assert.Equal(t, "K", st.Code)
		assert.Equal(t, "000", st.BasesBefore)
		assert.Equal(t, "000", st.BasesAfter)
		assert.Equal(t, i, st.OutsBefore)
		assert.Equal(t, 1, st.Outs)
		assert.Equal(t, 0, st.Runs)
	}

	hr := resp.Data.Trace[3]
	assert.Equal(t, "B1", hr.Inning)
	assert.Equal(t, "a1", hr.PitcherID)
	assert.Equal(t, "HR", hr.Code)
	assert.Equal(t, 0, hr.OutsBefore)
	assert.Equal(t, 0, hr.Outs)
	assert.Equal(t, 1, hr.Runs)
	assert.Equal(t, 0, hr.AwayScore)
	assert.Equal(t, 1, hr.HomeScore)
	assert.Equal(t, resp.Data.HomeScore, hr.HomeScore)
}

func TestTraceCommandText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text", Config: writeFixture(t)})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"S5", "1"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "S5/1")
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "000>000")
	assert.Contains(t, out, "0-1")
}

func TestTraceCommandUnknownGame(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text", Config: writeFixture(t)})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"S5", "99"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
