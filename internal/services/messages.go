package services

import "leadlens/internal/language"

var userMessages = map[Kind]language.Localized{
	KindFormValidation: {
		language.English:    "Please check the form fields and try again.",
		language.Portuguese: "Por favor, verifique os campos do formulário e tente novamente.",
		language.Spanish:    "Por favor, verifique los campos del formulario e intente nuevamente.",
	},
	KindAPI: {
		language.English:    "Unable to communicate with the server. Please try again.",
		language.Portuguese: "Não foi possível comunicar com o servidor. Por favor, tente novamente.",
		language.Spanish:    "No se pudo comunicar con el servidor. Por favor, intente nuevamente.",
	},
	KindCamera: {
		language.English:    "Camera access denied or not available.",
		language.Portuguese: "Acesso à câmera negado ou não disponível.",
		language.Spanish:    "Acceso a la cámara denegado o no disponible.",
	},
	KindSheets: {
		language.English:    "Unable to save data to Google Sheets.",
		language.Portuguese: "Não foi possível salvar os dados no Google Sheets.",
		language.Spanish:    "No se pudieron guardar los datos en Google Sheets.",
	},
	KindNetwork: {
		language.English:    "Network connection error. Please check your internet connection.",
		language.Portuguese: "Erro de conexão de rede. Por favor, verifique sua conexão com a internet.",
		language.Spanish:    "Error de conexión de red. Por favor, verifique su conexión a internet.",
	},
	KindUnknown: {
		language.English:    "An unexpected error occurred. Please try again.",
		language.Portuguese: "Ocorreu um erro inesperado. Por favor, tente novamente.",
		language.Spanish:    "Ocurrió un error inesperado. Por favor, intente nuevamente.",
	},
}

// MessageFor returns the localized generic message for kind.
func MessageFor(kind Kind, lang language.Lang) string {
	msgs, ok := userMessages[kind]
	if !ok {
		msgs = userMessages[KindUnknown]
	}
	return msgs.In(lang)
}
