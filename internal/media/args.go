package media

import (
	"fmt"
	"strconv"
	"strings"
)

// conditionSpec captures the resolved parameters for one conditioning pass.
// Intro/outro paths are empty when the stinger is unconfigured or missing.
type conditionSpec struct {
	SourcePath         string
	IntroPath          string
	OutroPath          string
	SampleRate         int
	Channels           int
	TrimSilence        bool
	NormalizeLoudness  bool
	SilenceThresholdDB float64
}

// buildConditionArgs constructs the full ffmpeg argument list for a
// conditioning pass writing to dest.
func buildConditionArgs(spec conditionSpec, dest string) []string {
	inputs, graph := buildFilterGraph(spec)

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
	}
	for _, input := range inputs {
		args = append(args, "-i", input)
	}
	args = append(args,
		"-filter_complex", graph,
		"-map", "[out]",
		"-ac", strconv.Itoa(spec.Channels),
		"-ar", strconv.Itoa(spec.SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	)
	return args
}

// buildFilterGraph returns the ffmpeg inputs in order and the filter_complex
// graph producing the [out] label. The main input carries the conditioning
// chain; intro/outro branches are only conformed so concat sees matching
// stream parameters.
func buildFilterGraph(spec conditionSpec) ([]string, string) {
	type branch struct {
		path  string
		chain []string
	}

	var branches []branch
	if spec.IntroPath != "" {
		branches = append(branches, branch{spec.IntroPath, conformChain(spec)})
	}
	branches = append(branches, branch{spec.SourcePath, mainChain(spec)})
	if spec.OutroPath != "" {
		branches = append(branches, branch{spec.OutroPath, conformChain(spec)})
	}

	inputs := make([]string, len(branches))
	for i, br := range branches {
		inputs[i] = br.path
	}

	if len(branches) == 1 {
		return inputs, fmt.Sprintf("[0:a]%s[out]", strings.Join(branches[0].chain, ","))
	}

	parts := make([]string, 0, len(branches)+1)
	labels := make([]string, len(branches))
	for i, br := range branches {
		label := fmt.Sprintf("[a%d]", i)
		parts = append(parts, fmt.Sprintf("[%d:a]%s%s", i, strings.Join(br.chain, ","), label))
		labels[i] = label
	}
	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=0:a=1[out]", strings.Join(labels, ""), len(branches)))
	return inputs, strings.Join(parts, ";")
}

// mainChain builds the conditioning filter chain for the episode input.
func mainChain(spec conditionSpec) []string {
	var chain []string
	if spec.TrimSilence {
		threshold := fmt.Sprintf("%gdB", spec.SilenceThresholdDB)
		// Trailing silence is trimmed by reversing, trimming the lead, and
		// reversing back.
		chain = append(chain,
			"silenceremove=start_periods=1:start_threshold="+threshold,
			"areverse",
			"silenceremove=start_periods=1:start_threshold="+threshold,
			"areverse",
		)
	}
	if spec.NormalizeLoudness {
		chain = append(chain, "loudnorm=I=-16:TP=-1.5:LRA=11")
	}
	return append(chain, conformChain(spec)...)
}

// conformChain resamples and reformats a branch to the target parameters.
// concat requires identical stream parameters across all branches.
func conformChain(spec conditionSpec) []string {
	return []string{
		fmt.Sprintf("aresample=%d", spec.SampleRate),
		fmt.Sprintf("aformat=sample_fmts=s16:channel_layouts=%s", channelLayout(spec.Channels)),
	}
}

func channelLayout(channels int) string {
	if channels == 1 {
		return "mono"
	}
	return "stereo"
}
