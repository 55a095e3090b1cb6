package catalog

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/medsafe-engine/internal/domain"
)

// Upper bound on evaluation cost for a single condition
const conditionCostLimit = 10000

// conditionEnv compiles entry conditions. Expressions see a single "patient" map:
//
//	patient.age            int
//	patient.age_category   string, e.g. "PEDIATRIC"
//	patient.weight_kg      double, 0 when unknown
//	patient.has_weight     bool
//	patient.renal_function string, "" when unknown
//	patient.conditions     list of lower-case strings
type conditionEnv struct {
	env *cel.Env
}

func newConditionEnv() (*conditionEnv, error) {
	env, err := cel.NewEnv(
		cel.Variable("patient", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &conditionEnv{env: env}, nil
}

func (c *conditionEnv) compile(expression string) (cel.Program, error) {
	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	switch ast.OutputType().String() {
	case "bool", "dyn":
	default:
		return nil, fmt.Errorf("condition must evaluate to bool, got %s", ast.OutputType())
	}

	prog, err := c.env.Program(ast, cel.CostLimit(conditionCostLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

func patientActivation(patient domain.PatientProfile, category domain.AgeCategory) map[string]any {
	weight := 0.0
	if patient.WeightKg != nil {
		weight = *patient.WeightKg
	}

	conditions := make([]string, 0, len(patient.Conditions))
	for _, cond := range patient.Conditions {
		if cond = strings.ToLower(strings.TrimSpace(cond)); cond != "" {
			conditions = append(conditions, cond)
		}
	}

	return map[string]any{
		"patient": map[string]any{
			"age":            int64(patient.Age),
			"age_category":   string(category),
			"weight_kg":      weight,
			"has_weight":     patient.WeightKg != nil,
			"renal_function": string(patient.RenalFunction),
			"conditions":     conditions,
		},
	}
}

func evalCondition(prog cel.Program, patient domain.PatientProfile, category domain.AgeCategory) (bool, error) {
	out, _, err := prog.Eval(patientActivation(patient, category))
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition produced %T, want bool", out.Value())
	}
	return b, nil
}
