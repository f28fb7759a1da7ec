package analysis

const analysisSystemPrompt = `Du bist ein praeziser Textanalyse-Assistent. Antworte ausschliesslich mit gueltigem JSON ohne Erklaerungen oder Markdown.`

// combinedPrompt asks for keywords, topics and a summary in one call. The
// placeholders are keyword cap, topic cap and the text itself.
const combinedPrompt = `Analysiere den folgenden Text und liefere:
1. Die %d wichtigsten Schluesselwoerter.
2. Bis zu %d uebergeordnete Themen mit Name, Konfidenz (0 bis 1) und kurzer Beschreibung.
3. Eine Zusammenfassung in zwei bis drei Saetzen.

Platzhalter wie [EMAIL] oder [PERSON] stehen fuer geschwaerzte personenbezogene Daten. Behandle sie als unbekannte Werte.

Antworte als JSON mit genau diesem Schema:
{"keywords": ["..."], "topics": [{"name": "...", "confidence": 0.0, "description": "..."}], "summary": "..."}

Text:
%s`
