// Package bedrock implements ai.Provider for Amazon Bedrock's Converse API.
//
// Authentication is handled by the AWS SDK v2 credential chain:
//  1. AWS_ACCESS_KEY_ID + AWS_SECRET_ACCESS_KEY (+ optional AWS_SESSION_TOKEN)
//  2. AWS_PROFILE — named profile from ~/.aws/credentials
//  3. ~/.aws/credentials default profile
//  4. IAM instance roles / ECS task roles / IRSA
//
// Unlike the HTTP adapters, the SDK owns the wire protocol (a binary event
// stream), so this adapter maps SDK events straight onto the pull Stream
// instead of going through a frame decoder.
package bedrock

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/prompts"
)

const (
	providerName = "bedrock"
	credHint     = "Check your AWS credentials (AWS_PROFILE or AWS_ACCESS_KEY_ID)"
	maxTokens    = 4096
)

// Client is the Amazon Bedrock provider.
type Client struct {
	Region  string
	Profile string
	model   string
}

// New creates a Client. Region falls back to AWS_DEFAULT_REGION / ~/.aws/config
// when empty.
func New(region, profile, model string) *Client {
	return &Client{Region: region, Profile: profile, model: model}
}

func (c *Client) ModelName() string { return c.model }

func (c *Client) newRuntime(ctx context.Context) (*bedrockruntime.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(c.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: load AWS config: %w", providerName, err)
	}
	return bedrockruntime.NewFromConfig(cfg), nil
}

// buildMessages maps a CompletionRequest onto the Converse schema: like the
// Anthropic adapter, system prompt plus context and history fold into the
// system blocks and the query is the single user message.
func (c *Client) buildMessages(req ai.CompletionRequest) ([]types.SystemContentBlock, []types.Message) {
	system := []string{req.SystemPrompt}

	if len(req.ContextFiles) > 0 {
		var parts []string
		for _, f := range req.ContextFiles {
			parts = append(parts, fmt.Sprintf("File: %s\n```\n%s\n```", f.Name, f.Content))
		}
		system = append(system, "Context:\n"+strings.Join(parts, "\n\n"))
	}
	if len(req.History) > 0 {
		system = append(system, "Recent shell history:\n"+strings.Join(req.History, "\n"))
	}

	sysBlocks := []types.SystemContentBlock{
		&types.SystemContentBlockMemberText{Value: strings.Join(system, "\n\n")},
	}
	messages := []types.Message{{
		Role:    types.ConversationRoleUser,
		Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: req.UserQuery}},
	}}
	return sysBlocks, messages
}

// StreamCompletion implements ai.Provider.
func (c *Client) StreamCompletion(ctx context.Context, req ai.CompletionRequest) (ai.Stream, error) {
	runtime, err := c.newRuntime(ctx)
	if err != nil {
		return nil, err
	}

	sysBlocks, messages := c.buildMessages(req)
	tokens := int32(maxTokens)
	resp, err := runtime.ConverseStream(ctx, &bedrockruntime.ConverseStreamInput{
		ModelId:         aws.String(c.model),
		System:          sysBlocks,
		Messages:        messages,
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: &tokens},
	})
	if err != nil {
		return nil, &ai.ConnectionError{Provider: providerName, Err: err, Hint: credHint}
	}

	return &eventStream{stream: resp.GetStream()}, nil
}

// eventStream adapts the SDK's event channel to the pull Stream contract.
type eventStream struct {
	stream *bedrockruntime.ConverseStreamEventStream
	closed bool
}

func (s *eventStream) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	for {
		ev, ok := <-s.stream.Events()
		if !ok {
			if err := s.stream.Err(); err != nil {
				s.stream.Close()
				return "", &ai.ConnectionError{Provider: providerName, Err: err, Hint: credHint}
			}
			s.stream.Close()
			return "", io.EOF
		}
		delta, ok := ev.(*types.ConverseStreamOutputMemberContentBlockDelta)
		if !ok {
			continue
		}
		if text, ok := delta.Value.Delta.(*types.ContentBlockDeltaMemberText); ok && text.Value != "" {
			return text.Value, nil
		}
	}
}

func (s *eventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stream.Close()
}

// GetFixSuggestion implements ai.Provider.
func (c *Client) GetFixSuggestion(ctx context.Context, errorLog string) (string, error) {
	runtime, err := c.newRuntime(ctx)
	if err != nil {
		return "", err
	}

	tokens := int32(maxTokens)
	resp, err := runtime.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.model),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: prompts.SentinelSystemPrompt},
		},
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompts.FixRequest(errorLog)}},
		}},
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: &tokens},
	})
	if err != nil {
		return "", &ai.ConnectionError{Provider: providerName, Err: err, Hint: credHint}
	}

	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ai.NoResponse, nil
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok && text.Value != "" {
			return text.Value, nil
		}
	}
	return ai.NoResponse, nil
}
