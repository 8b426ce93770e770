package ai

import (
	"fmt"
	"strconv"
	"strings"
)

const coachSystemPrompt = `You are an experienced executive coach specializing in leadership development, communication skills, and professional growth. Your coaching style is:

- Empathetic and supportive while maintaining high standards
- Focused on actionable insights and practical strategies
- Uses the Socratic method to help clients discover their own solutions
- Provides specific, behavioral feedback rather than general praise or criticism
- Encourages reflection and self-awareness
- Celebrates progress while pushing for continuous improvement

When coaching:
1. Listen actively and ask clarifying questions
2. Help identify patterns and blind spots
3. Challenge limiting beliefs constructively
4. Provide frameworks and models when helpful
5. Set clear, measurable goals
6. Follow up on previous commitments

Your responses should be concise, warm, and professional. Aim for 2-3 sentences unless more detail is specifically needed.`

const simulatorSystemPrompt = `You are roleplaying as a challenging client in a professional coaching scenario. Your goal is to provide realistic, varied responses that test the coach's skills.

Key behaviors:
- Sometimes be resistant or defensive
- Occasionally bring up tangential issues
- Show authentic emotions (frustration, excitement, doubt)
- Challenge the coach's suggestions appropriately
- Provide enough detail to make the scenario realistic
- Evolve your responses based on the coach's approach

Stay in character and make the coach work for progress. Be professional but authentic.`

const evaluatorSystemPrompt = "You are an expert coach evaluator. Provide constructive, specific feedback."

const mentorSystemPrompt = "You are an expert coaching mentor providing developmental feedback."

func buildCoachSystemPrompt(info *UserInfo) string {
	if info == nil {
		return coachSystemPrompt
	}

	var builder strings.Builder
	builder.WriteString(coachSystemPrompt)
	builder.WriteString("\n\nClient profile:\n")
	if info.Name != "" {
		builder.WriteString("- Name: ")
		builder.WriteString(info.Name)
		builder.WriteString("\n")
	}
	if len(info.Goals) > 0 {
		builder.WriteString("- Goals: ")
		builder.WriteString(strings.Join(info.Goals, "; "))
		builder.WriteString("\n")
	}
	if len(info.Challenges) > 0 {
		builder.WriteString("- Challenges: ")
		builder.WriteString(strings.Join(info.Challenges, "; "))
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}

func buildSimulatorSystemPrompt(scenario string) string {
	return fmt.Sprintf("%s\n\nScenario: %s", simulatorSystemPrompt, scenario)
}

func buildEvaluationPrompt(input EvaluationInput) string {
	return fmt.Sprintf(`Evaluate this coaching response on a scale of 0-100:

Scenario: %s
Client said: "%s"
Coach responded: "%s"

Consider:
1. Empathy and active listening (0-25 points)
2. Asking powerful questions (0-25 points)
3. Providing actionable insights (0-25 points)
4. Professional communication (0-25 points)

Provide:
- Overall score (0-100)
- 2-3 specific strengths
- 2-3 specific areas for improvement
- Brief feedback summary

Format your response as JSON:
{
  "score": <number>,
  "strengths": ["strength1", "strength2"],
  "improvements": ["improvement1", "improvement2"],
  "feedback": "summary"
}`, input.Scenario, input.ClientMessage, input.CoachText)
}

func buildSummaryPrompt(attempts []AttemptDigest) string {
	var builder strings.Builder
	builder.WriteString("Analyze these coaching practice attempts and provide a comprehensive performance summary:\n")
	for i, attempt := range attempts {
		fmt.Fprintf(&builder, "\nAttempt %d:\n- Score: %s/100\n- Feedback: %s\n", i+1, formatScore(attempt.Score), attempt.Feedback)
	}
	builder.WriteString(`
Provide:
1. Overall performance trend
2. Key strengths demonstrated
3. Priority areas for development
4. Specific actionable recommendations

Keep the summary concise but insightful (4-6 sentences).`)
	return builder.String()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
