package classifier

// Built-in sentiment lexicons. Deliberately small: the classifier only needs
// to be good enough to route moods, and users can extend the lists through
// settings.

var positiveWords = []string{
	"happy", "glad", "great", "good", "wonderful", "amazing", "awesome",
	"fantastic", "excited", "joy", "joyful", "love", "loving", "delighted",
	"cheerful", "thrilled", "content", "grateful", "ecstatic", "upbeat",
	"energetic", "fun", "beautiful", "smile", "smiling", "celebrating",
	"proud", "relaxed", "peaceful", "optimistic", "hopeful",
}

var negativeWords = []string{
	"sad", "unhappy", "bad", "terrible", "awful", "horrible", "depressed",
	"depressing", "miserable", "down", "blue", "gloomy", "lonely", "crying",
	"cry", "heartbroken", "angry", "mad", "furious", "rage", "hate",
	"annoyed", "frustrated", "anxious", "worried", "nervous", "scared",
	"afraid", "stressed", "tired", "exhausted", "hurt", "pain", "grief",
	"hopeless", "upset", "devastated", "overwhelmed",
}

var negationWords = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"can't": true, "cant": true, "won't": true, "wont": true, "isn't": true,
	"isnt": true, "didn't": true, "didnt": true, "nothing": true,
}

var intensifierWords = map[string]bool{
	"so": true, "very": true, "really": true, "extremely": true,
	"totally": true, "absolutely": true, "completely": true, "incredibly": true,
}
