package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// PromptBuilder constructs standardized prompts for module, package and
// cycle-group documentation.
type PromptBuilder struct{}

func (pb *PromptBuilder) BuildModulePrompt(meta Metadata, depContext map[string]string) string {
	var sb strings.Builder
	kind := "module"
	if meta.IsPackage {
		kind = "package"
	}
	fmt.Fprintf(&sb, "Please provide clear, concise, and comprehensive documentation for the Python %s '%s'.\n", kind, meta.Name)
	sb.WriteString("Your documentation should cover:\n")
	sb.WriteString("1. **Purpose:** What is the specific goal or functionality of this " + kind + "?\n")
	sb.WriteString("2. **Interface:** What are the main functions, classes, or variables exposed for external use?\n")
	sb.WriteString("3. **Usage:** Provide clear examples of how it would typically be imported and used.\n")

	writeDependencyContext(&sb, depContext)

	if meta.Source != "" {
		fmt.Fprintf(&sb, "\nHere is the Python code:\n```python\n%s\n```\n", meta.Source)
	} else {
		sb.WriteString("\nThis file is empty or its content could not be read.\n")
	}
	return sb.String()
}

func (pb *PromptBuilder) BuildCycleOverviewPrompt(meta Metadata, depContext map[string]string) string {
	var sb strings.Builder
	sb.WriteString("The following Python modules form a circular dependency group and must be understood together.\n")
	sb.WriteString("Write a short overview of the group's collective purpose and describe how the members relate.\n")

	sb.WriteString("\nMembers:\n")
	for _, m := range meta.CycleMembers {
		fmt.Fprintf(&sb, "- %s\n", m)
	}
	if len(meta.CycleEdges) > 0 {
		sb.WriteString("\nImports within the group:\n")
		for _, e := range meta.CycleEdges {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}

	writeDependencyContext(&sb, depContext)
	return sb.String()
}

// writeDependencyContext appends dependency summaries in a stable order.
func writeDependencyContext(sb *strings.Builder, depContext map[string]string) {
	if len(depContext) == 0 {
		return
	}
	names := make([]string, 0, len(depContext))
	for name := range depContext {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("\nConsider the following documentation of its dependencies (do not restate it, build on it):\n")
	for _, name := range names {
		fmt.Fprintf(sb, "\n--- Dependency: %s ---\n%s\n", name, depContext[name])
	}
}
