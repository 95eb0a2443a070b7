package rag

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSharedWords is the longest run of consecutive words the answer may share with the context.
const maxSharedWords = 6

// phrases holds every user-facing and model-facing string for one language.
type phrases struct {
	// noReliableInfo is returned without calling the model when nothing was retrieved.
	noReliableInfo string
	// insufficientInfo is the exact sentence the model must use when the context lacks the answer.
	insufficientInfo   string
	fallbackNoContext  string
	fallbackGeneration string

	persona         string
	groundOnly      string
	questionType    string
	typeProjects    string
	typeGeneral     string
	answerFormat    string
	formatList      string
	formatShort     string
	mandatoryRules  string
	answerRules     []string
	countRule       string
	countUnset      string
	brevity         string
	questionHeading string
	contextHeading  string

	paraphraseIntro  string
	paraphraseRules  []string
	originalHeading  string
	referenceHeading string
	listIntro        string
	listRules        []string
	listExactCount   string
	listAnyCount     string
	currentHeading   string
	backgroundTag    string
}

var localized = map[Language]phrases{
	LanguagePT: {
		noReliableInfo:     "Não encontrei informação confiável o suficiente para responder com precisão. Adicione conteúdo na pasta de uploads (por exemplo, o currículo) e rode a ingestão novamente.",
		insufficientInfo:   "Não encontrei essa informação nos documentos carregados.",
		fallbackNoContext:  "Não encontrei informação confiável nos documentos carregados para responder.",
		fallbackGeneration: "Não foi possível gerar a resposta com o modelo agora. Verifique a chave de API do modelo no arquivo .env e tente novamente.",

		persona:        "Você deve responder como candidato em uma entrevista de emprego, sempre em primeira pessoa (eu/meu/minha), com tom profissional e direto.",
		groundOnly:     "Use APENAS os fatos presentes no contexto recuperado e responda somente em português, mesmo que o contexto esteja em outro idioma.",
		questionType:   "Tipo da pergunta",
		typeProjects:   "projetos",
		typeGeneral:    "geral/carreira",
		answerFormat:   "Formato de resposta",
		formatList:     "lista em markdown",
		formatShort:    "texto curto em markdown",
		mandatoryRules: "Regras obrigatórias:",
		answerRules: []string{
			"Não invente informações.",
			"Não chute datas, empresas ou tecnologias.",
			"Se algo não estiver claro no contexto, responda exatamente: \"%s\"",
			"Não copie frases do contexto literalmente; sempre parafraseie.",
			"Não use mais de %d palavras consecutivas iguais ao contexto.",
			"Em perguntas sobre projetos, priorize os arquivos de projetos e use o currículo apenas como apoio.",
			"Em perguntas de carreira geral, use o currículo como base principal.",
			"Estruture como resposta para um entrevistador.",
			"Se a pergunta pedir lista, responda em itens numerados.",
		},
		countRule:       "Se a pergunta pedir uma quantidade, tente entregar exatamente essa quantidade: %s.",
		countUnset:      "não especificada",
		brevity:         "Resposta curta e objetiva em markdown.",
		questionHeading: "Pergunta do usuário:",
		contextHeading:  "Contexto:",

		paraphraseIntro: "Reescreva a resposta abaixo em português, mantendo os mesmos fatos.",
		paraphraseRules: []string{
			"Não copie frases literais do contexto.",
			"Não use mais de %d palavras consecutivas iguais ao contexto.",
			"Não adicione fatos novos.",
			"Resposta curta e objetiva em markdown.",
		},
		originalHeading:  "Resposta original:",
		referenceHeading: "Contexto de referência:",
		listIntro:        "Reestruture a resposta abaixo em formato de lista em markdown, em português.",
		listRules: []string{
			"Não invente itens.",
			"Baseie-se somente no contexto.",
			"Se a informação for insuficiente para a quantidade pedida, explique em uma frase curta e liste apenas os itens suportados.",
			"Evite cópia literal do contexto.",
		},
		listExactCount: "Entregue exatamente %d itens numerados (1., 2., 3...).",
		listAnyCount:   "Entregue uma lista numerada objetiva com os principais itens.",
		currentHeading: "Resposta atual:",
		backgroundTag:  "CV_FIXO",
	},
	LanguageEN: {
		noReliableInfo:     "I could not find reliable enough information to answer precisely. Add content to the uploads folder (for example, the résumé) and run the ingestion again.",
		insufficientInfo:   "I could not find that information in the uploaded documents.",
		fallbackNoContext:  "I could not find reliable information in the uploaded documents to answer.",
		fallbackGeneration: "The model could not generate an answer right now. Check the model API key in the .env file and try again.",

		persona:        "Answer as a candidate in a job interview, always in the first person (I/my), with a professional and direct tone.",
		groundOnly:     "Use ONLY the facts present in the retrieved context and answer only in English, even when the context is in another language.",
		questionType:   "Question type",
		typeProjects:   "projects",
		typeGeneral:    "general/career",
		answerFormat:   "Answer format",
		formatList:     "markdown list",
		formatShort:    "short markdown text",
		mandatoryRules: "Mandatory rules:",
		answerRules: []string{
			"Do not invent information.",
			"Do not guess dates, companies or technologies.",
			"If something is not clear in the context, answer exactly: \"%s\"",
			"Do not copy sentences from the context literally; always paraphrase.",
			"Do not use more than %d consecutive words identical to the context.",
			"For questions about projects, prioritize the project files and use the résumé only as support.",
			"For general career questions, use the résumé as the main basis.",
			"Structure it as an answer to an interviewer.",
			"If the question asks for a list, answer with numbered items.",
		},
		countRule:       "If the question asks for a quantity, try to deliver exactly that quantity: %s.",
		countUnset:      "not specified",
		brevity:         "Short and objective answer in markdown.",
		questionHeading: "User question:",
		contextHeading:  "Context:",

		paraphraseIntro: "Rewrite the answer below in English, keeping the same facts.",
		paraphraseRules: []string{
			"Do not copy literal sentences from the context.",
			"Do not use more than %d consecutive words identical to the context.",
			"Do not add new facts.",
			"Short and objective answer in markdown.",
		},
		originalHeading:  "Original answer:",
		referenceHeading: "Reference context:",
		listIntro:        "Restructure the answer below as a markdown list, in English.",
		listRules: []string{
			"Do not invent items.",
			"Rely only on the context.",
			"If the information is not enough for the requested quantity, explain it in one short sentence and list only the supported items.",
			"Avoid literal copying from the context.",
		},
		listExactCount: "Deliver exactly %d numbered items (1., 2., 3...).",
		listAnyCount:   "Deliver an objective numbered list with the main items.",
		currentHeading: "Current answer:",
		backgroundTag:  "FIXED_CV",
	},
}

func phrasesFor(lang Language) phrases {
	if p, ok := localized[lang]; ok {
		return p
	}
	return localized[LanguageEN]
}

// NoReliableInfoMessage is the answer returned when no context could be assembled.
func NoReliableInfoMessage(lang Language) string {
	return phrasesFor(lang).noReliableInfo
}

// fallbackAnswer replaces a failed generation.
func fallbackAnswer(lang Language, hasContext bool) string {
	p := phrasesFor(lang)
	if !hasContext {
		return p.fallbackNoContext
	}
	return p.fallbackGeneration
}

// buildAnswerPrompt renders the grounding prompt for one question.
func buildAnswerPrompt(question string, intent Intent, chunks []ContextChunk) string {
	p := phrasesFor(intent.Language)

	qType := p.typeGeneral
	if intent.ProjectIntent {
		qType = p.typeProjects
	}
	format := p.formatShort
	if intent.ListIntent {
		format = p.formatList
	}
	count := p.countUnset
	if intent.RequestedCount > 0 {
		count = strconv.Itoa(intent.RequestedCount)
	}

	rules := make([]string, 0, len(p.answerRules)+2)
	for _, r := range p.answerRules {
		switch {
		case strings.Contains(r, "%s"):
			r = fmt.Sprintf(r, p.insufficientInfo)
		case strings.Contains(r, "%d"):
			r = fmt.Sprintf(r, maxSharedWords)
		}
		rules = append(rules, r)
	}
	rules = append(rules, fmt.Sprintf(p.countRule, count), p.brevity)

	var b strings.Builder
	b.WriteString(p.persona)
	b.WriteString(" ")
	b.WriteString(p.groundOnly)
	fmt.Fprintf(&b, " %s: %s. %s: %s. ", p.questionType, qType, p.answerFormat, format)
	writeRules(&b, p.mandatoryRules, rules)
	fmt.Fprintf(&b, "\n\n%s\n%s\n\n%s\n%s", p.questionHeading, question, p.contextHeading, formatContextBlocks(chunks, p.backgroundTag))
	return b.String()
}

// buildParaphrasePrompt asks for a same-language rewrite that copies less from the context.
func buildParaphrasePrompt(lang Language, answer string, contexts []string) string {
	p := phrasesFor(lang)

	rules := make([]string, len(p.paraphraseRules))
	for i, r := range p.paraphraseRules {
		if strings.Contains(r, "%d") {
			r = fmt.Sprintf(r, maxSharedWords)
		}
		rules[i] = r
	}

	var b strings.Builder
	b.WriteString(p.paraphraseIntro)
	b.WriteString(" ")
	writeRules(&b, p.mandatoryRules, rules)
	fmt.Fprintf(&b, "\n\n%s\n%s\n\n%s\n%s", p.originalHeading, answer, p.referenceHeading, strings.Join(contexts, "\n\n"))
	return b.String()
}

// buildListPrompt asks for the answer reshaped as a numbered list.
func buildListPrompt(intent Intent, question, answer string, contexts []string) string {
	p := phrasesFor(intent.Language)

	countInstruction := p.listAnyCount
	if intent.RequestedCount > 0 {
		countInstruction = fmt.Sprintf(p.listExactCount, intent.RequestedCount)
	}

	var b strings.Builder
	b.WriteString(p.listIntro)
	b.WriteString(" ")
	writeRules(&b, p.mandatoryRules, p.listRules)
	fmt.Fprintf(&b, "\n\n%s\n%s\n%s\n\n%s\n%s\n\n%s\n%s",
		countInstruction,
		p.questionHeading, question,
		p.currentHeading, answer,
		p.contextHeading, strings.Join(contexts, "\n\n"),
	)
	return b.String()
}

// formatContextBlocks numbers ranked chunks as "[i] (source)" and tags the background document.
func formatContextBlocks(chunks []ContextChunk, backgroundTag string) string {
	blocks := make([]string, 0, len(chunks))
	n := 0
	for _, c := range chunks {
		if c.Background {
			blocks = append(blocks, fmt.Sprintf("[%s] (%s)\n%s", backgroundTag, c.SourceName, c.Content))
			continue
		}
		n++
		blocks = append(blocks, fmt.Sprintf("[%d] (%s)\n%s", n, c.SourceName, c.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func writeRules(b *strings.Builder, heading string, rules []string) {
	b.WriteString(heading)
	for i, r := range rules {
		fmt.Fprintf(b, " %d) %s", i+1, r)
	}
}
