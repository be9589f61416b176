package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
)

// floatFlag 仅在命令行显式给出时才设置值。
type floatFlag struct{ v *float64 }

func (f *floatFlag) String() string {
	if f.v == nil {
		return ""
	}
	return strconv.FormatFloat(*f.v, 'f', -1, 64)
}

func (f *floatFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.v = &v
	return nil
}

// =============================================================================
// 💬 chat 命令
// =============================================================================

func runChat(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	provider := fs.String("provider", "", "Provider tag")
	model := fs.String("model", "", "Model name")
	system := fs.String("system", "", "System prompt")
	stream := fs.Bool("stream", false, "Print the reply as it arrives")
	maxLength := fs.Int("max", 0, "Maximum reply length")
	var temperature, top floatFlag
	fs.Var(&temperature, "temperature", "Sampling temperature")
	fs.Var(&top, "top", "Nucleus sampling")
	var images []string
	fs.Func("img", "Attach an image, repeatable", func(s string) error {
		images = append(images, s)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}

	prompt := strings.Join(fs.Args(), " ")
	if prompt == "" && stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}

	var messages []llm.ChatMessage
	if *system != "" {
		messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: llm.Strings{*system}})
	}
	if prompt != "" || len(images) > 0 {
		messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: llm.Strings{prompt}, Img: images})
	}

	opt := llm.ChatOption{
		Provider:    llm.Provider(*provider),
		Model:       *model,
		Temperature: temperature.v,
		Top:         top.v,
		MaxLength:   *maxLength,
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if !*stream {
		resp, err := a.ai.Chat(ctx, messages, opt)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, resp.Content)
		printTools(stdout, resp.Tools)
		return nil
	}

	s, err := a.ai.ChatStream(ctx, messages, opt)
	if err != nil {
		return err
	}
	defer s.Close()

	var last llm.ChatResponse
	for {
		r, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintln(stdout)
			return err
		}
		fmt.Fprint(stdout, r.Content)
		printTools(stdout, r.Tools)
		last = *r
	}
	fmt.Fprintln(stdout)
	if last.HasUsage() {
		a.logger.Info("usage",
			zap.String("model", last.Model),
			zap.Int("prompt_tokens", last.PromptTokens),
			zap.Int("completion_tokens", last.CompletionTokens),
			zap.Int("total_tokens", last.TotalTokens))
	}
	return nil
}

func printTools(w io.Writer, tools []json.RawMessage) {
	for _, t := range tools {
		fmt.Fprintf(w, "\n[tool] %s", t)
	}
}

// =============================================================================
// 🔢 embed 命令
// =============================================================================

func runEmbed(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	provider := fs.String("provider", "", "Provider tag")
	model := fs.String("model", "", "Model name")
	dimensions := fs.Int("dimensions", 0, "Output dimensions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("embed: at least one input is required")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.ai.Embedding(ctx, fs.Args(), llm.EmbedOption{
		Provider:   llm.Provider(*provider),
		Model:      *model,
		Dimensions: *dimensions,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// =============================================================================
// 📚 models 命令
// =============================================================================

func runModels(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	provider := fs.String("provider", "", "Only list this provider")
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list := llm.Models()
	if *provider != "" {
		m, ok := llm.ModelsOf(llm.Provider(*provider))
		if !ok {
			return llm.NewError(llm.ErrUnsupportedProvider, llm.Provider(*provider), "unsupported provider")
		}
		list = []llm.ProviderModels{m}
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tKIND\tMODELS")
	for _, m := range list {
		if len(m.Chat) > 0 {
			fmt.Fprintf(tw, "%s\tchat\t%s\n", m.Provider, strings.Join(m.Chat, ", "))
		}
		if len(m.Embed) > 0 {
			fmt.Fprintf(tw, "%s\tembed\t%s\n", m.Provider, strings.Join(m.Embed, ", "))
		}
	}
	return tw.Flush()
}
