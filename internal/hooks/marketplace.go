package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// MarketplaceFile is the plugin marketplace manifest, relative to the project.
var MarketplaceFile = filepath.Join(".claude-plugin", "marketplace.json")

// ValidateMarketplace blocks while the project's marketplace manifest is not
// valid strict JSON or misses required fields.
func ValidateMarketplace(_ context.Context, env *Env, _ Input) (Response, error) {
	path := filepath.Join(env.workDir(), MarketplaceFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			env.Log.Printf("read %s: %v", path, err)
		}
		return Response{}, nil
	}
	manifest, err := ParseMarketplace(data)
	if err != nil {
		return Block("marketplace.json is not valid JSON: " + err.Error()), nil
	}
	problems := ValidateManifest(manifest)
	if len(problems) == 0 {
		return Response{}, nil
	}
	var b strings.Builder
	b.WriteString("marketplace.json validation failed:\n")
	for _, problem := range problems {
		b.WriteString("  - " + problem + "\n")
	}
	b.WriteString("\nPlease fix these issues before continuing.")
	return Block(b.String()), nil
}

// ParseMarketplace decodes the manifest. The host only accepts strict JSON,
// so comments and trailing commas are rejected even though they parse.
func ParseMarketplace(data []byte) (map[string]any, error) {
	value, err := hujson.Parse(data)
	if err != nil {
		return nil, err
	}
	if !value.IsStandard() {
		return nil, errors.New("comments and trailing commas are not allowed")
	}
	var manifest map[string]any
	if err := json.Unmarshal(value.Pack(), &manifest); err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, errors.New("top level must be an object")
	}
	return manifest, nil
}

// ValidateManifest lists every schema problem in manifest.
func ValidateManifest(manifest map[string]any) []string {
	var problems []string

	switch name, ok := manifest["name"]; {
	case !ok:
		problems = append(problems, "Missing required field: name")
	case !isString(name):
		problems = append(problems, "Field 'name' must be a string")
	}

	switch owner, ok := manifest["owner"]; {
	case !ok:
		problems = append(problems, "Missing required field: owner")
	default:
		obj, isObj := owner.(map[string]any)
		if !isObj {
			problems = append(problems, "Field 'owner' must be an object")
			break
		}
		if name, ok := obj["name"]; !ok {
			problems = append(problems, "owner.name is required")
		} else if !isString(name) {
			problems = append(problems, "owner.name must be a string")
		}
		if email, ok := obj["email"]; ok && !isString(email) {
			problems = append(problems, "owner.email must be a string")
		}
	}

	plugins, ok := manifest["plugins"]
	if !ok {
		return append(problems, "Missing required field: plugins")
	}
	list, isList := plugins.([]any)
	if !isList {
		return append(problems, "Field 'plugins' must be an array")
	}
	for i, item := range list {
		problems = append(problems, validatePlugin(fmt.Sprintf("plugins[%d]", i), item)...)
	}
	return problems
}

func validatePlugin(prefix string, item any) []string {
	plugin, ok := item.(map[string]any)
	if !ok {
		return []string{prefix + ": must be an object"}
	}
	var problems []string
	if name, ok := plugin["name"]; !ok {
		problems = append(problems, prefix+": missing required field 'name'")
	} else if !isString(name) {
		problems = append(problems, prefix+".name: must be a string")
	}
	if source, ok := plugin["source"]; !ok {
		problems = append(problems, prefix+": missing required field 'source' (did you use 'path' instead?)")
	} else if !isString(source) {
		problems = append(problems, prefix+".source: must be a string")
	}
	if _, ok := plugin["description"]; !ok {
		problems = append(problems, prefix+": missing required field 'description'")
	}
	if _, ok := plugin["version"]; !ok {
		problems = append(problems, prefix+": missing required field 'version'")
	}
	if _, ok := plugin["path"]; ok {
		problems = append(problems, prefix+": 'path' is invalid, use 'source' instead")
	}
	if _, ok := plugin["keywords"]; ok {
		problems = append(problems, prefix+": 'keywords' is not allowed in marketplace plugins")
	}
	return problems
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
