package knowledge

import (
	"strings"
	"text/template"
)

var snippetTemplate = template.Must(template.New("snippet").Parse(`
<!-- Start of Chatbot Widget -->
<div id="chatbot-container" style="position: fixed; bottom: 20px; right: 20px; width: 300px; height: 400px; border: 1px solid #ccc; padding: 10px; background-color: white;">
    <div id="chatbot-messages" style="height: 80%; overflow-y: auto; margin-bottom: 10px;"></div>
    <input type="text" id="chatbot-input" placeholder="Type your message..." style="width: 80%;" />
    <button onclick="sendMessage()">Send</button>
</div>
<script>
function sendMessage() {
    var inputField = document.getElementById('chatbot-input');
    var message = inputField.value;
    if (!message) return;

    var messagesContainer = document.getElementById('chatbot-messages');
    var userMessage = document.createElement('div');
    userMessage.textContent = "You: " + message;
    messagesContainer.appendChild(userMessage);

    inputField.value = '';

    fetch({{.ChatURL | js | printf "'%s'"}}, {
        method: 'POST',
        headers: {
            'Content-Type': 'application/json'
        },
        body: JSON.stringify({
            message: message,
            website_id: {{.WebsiteID}}
        })
    })
    .then(response => response.json())
    .then(data => {
        var botMessage = document.createElement('div');
        botMessage.textContent = "Bot: " + (data.response || data.error || "No response");
        messagesContainer.appendChild(botMessage);
    })
    .catch(error => {
        var botMessage = document.createElement('div');
        botMessage.textContent = "Bot: Error connecting to the server.";
        messagesContainer.appendChild(botMessage);
    });
}
</script>
<!-- End of Chatbot Widget -->
`))

// Snippet renders the embeddable chat widget for a website. The widget posts
// to {publicBaseURL}/chat, or to a relative /chat when no base is configured.
func Snippet(publicBaseURL string, websiteID int64) (string, error) {
	var b strings.Builder
	err := snippetTemplate.Execute(&b, struct {
		ChatURL   string
		WebsiteID int64
	}{
		ChatURL:   strings.TrimRight(publicBaseURL, "/") + "/chat",
		WebsiteID: websiteID,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
