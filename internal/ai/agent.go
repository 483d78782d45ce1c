package ai

import (
	"bom-engine/internal/core"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

type AgentService interface {
	InterpretChange(ctx context.Context, naturalLanguage string, bomContext string, itemCatalog string) (*core.ChangeResponse, error)
}

// maxToolRounds caps the read-tool loop so a confused model cannot spin.
const maxToolRounds = 5

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// InterpretChange turns a natural-language engineering change request into a
// structured ChangeProposal (or a clarification request when the input is too
// vague). The caller supplies the current BOM state and the item catalog so
// the model grounds refs and SKUs in what actually exists.
func (a *Agent) InterpretChange(ctx context.Context, naturalLanguage string, bomContext string, itemCatalog string) (*core.ChangeResponse, error) {
	return a.InterpretChangeWithTools(ctx, naturalLanguage, bomContext, itemCatalog, nil)
}

// InterpretChangeWithTools is InterpretChange with an optional tool registry.
// Read tools from the registry are executed autonomously: the model may call
// them to inspect other BOMs or usage data before committing to a proposal.
func (a *Agent) InterpretChangeWithTools(ctx context.Context, naturalLanguage string, bomContext string, itemCatalog string, registry *ToolRegistry) (*core.ChangeResponse, error) {
	prompt := fmt.Sprintf(`You are an expert manufacturing engineer maintaining bills of materials.
Your goal is to interpret an engineering change request described in natural language and propose an ordered list of BOM edits.
Rules:
1. Reference components ONLY by the refs shown in the current BOM below.
2. Use ONLY SKUs from the item catalog below. If the requested part is not in the catalog, leave item_sku empty and mention it in the notes.
3. Quantities and costs must be decimal strings (e.g. "2", "12.85").
4. Provide a confidence score (0.0-1.0).
5. Explain your reasoning.
6. If the request is ambiguous (unclear target component, missing quantity), return a clarification request instead of guessing.

Current BOM:
%s

Item catalog:
%s

Change request: %s`, bomContext, itemCatalog, naturalLanguage)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	textConfig := responses.ResponseTextConfigParam{
		Format: responses.ResponseFormatTextConfigUnionParam{
			OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
				Type:        constant.JSONSchema("json_schema"),
				Name:        "bom_change_proposal",
				Strict:      param.NewOpt(true),
				Schema:      schemaMap,
				Description: param.NewOpt("A proposed set of edits to a bill of materials, or a clarification request"),
			},
		},
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: textConfig,
	}
	if registry != nil && len(registry.All()) > 0 {
		params.Tools = registry.ToOpenAITools()
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	// Read-tool loop: execute any function calls and feed the results back
	// until the model settles on a structured answer.
	for round := 0; registry != nil && round < maxToolRounds; round++ {
		var outputs responses.ResponseInputParam
		for _, item := range resp.Output {
			if item.Type != "function_call" {
				continue
			}
			call := item.AsFunctionCall()
			tool, ok := registry.Get(call.Name)
			if !ok || !tool.IsReadTool || tool.Handler == nil {
				outputs = append(outputs, responses.ResponseInputItemParamOfFunctionCallOutput(
					call.CallID, fmt.Sprintf(`{"error": "unknown tool %q"}`, call.Name)))
				continue
			}
			var args map[string]any
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				outputs = append(outputs, responses.ResponseInputItemParamOfFunctionCallOutput(
					call.CallID, fmt.Sprintf(`{"error": "bad arguments: %v"}`, err)))
				continue
			}
			result, err := tool.Handler(ctx, args)
			if err != nil {
				result = fmt.Sprintf(`{"error": %q}`, err.Error())
			}
			outputs = append(outputs, responses.ResponseInputItemParamOfFunctionCallOutput(call.CallID, result))
		}
		if len(outputs) == 0 {
			break
		}

		resp, err = a.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:              shared.ResponsesModel(shared.ChatModelGPT4o),
			PreviousResponseID: param.NewOpt(resp.ID),
			Input:              responses.ResponseNewParamsInputUnion{OfInputItemList: outputs},
			Text:               textConfig,
			Tools:              registry.ToOpenAITools(),
		})
		if err != nil {
			return nil, fmt.Errorf("openai responses error: %w", err)
		}
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var response core.ChangeResponse
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	if response.IsClarificationRequest {
		if response.Clarification == nil {
			return nil, fmt.Errorf("clarification flagged but no clarification message returned")
		}
		return &response, nil
	}

	if response.Proposal == nil {
		return nil, fmt.Errorf("no proposal returned")
	}
	response.Proposal.Normalize()
	if err := response.Proposal.Validate(); err != nil {
		return nil, fmt.Errorf("proposal validation failed: %w", err)
	}

	return &response, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.ChangeResponse
	return reflector.Reflect(v)
}
