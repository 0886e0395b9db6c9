package roddoc

// Each script is evaluated as a function with positional arguments.

const jsVisible = `const visible = (el) => {
	const cs = window.getComputedStyle(el);
	return cs.display !== 'none' && cs.visibility !== 'hidden' && el.getClientRects().length > 0;
};`

const jsInputs = `() => {
	` + jsVisible + `
	return Array.from(document.querySelectorAll('input')).filter(el => el.name).map(el => ({
		name: el.name,
		type: (el.type || 'text').toLowerCase(),
		value: el.value || '',
		checked: !!el.checked,
		visible: visible(el),
	}));
}`

const jsSetValue = `(name, value) => {
	let n = 0;
	const setter = Object.getOwnPropertyDescriptor(HTMLInputElement.prototype, 'value').set;
	document.querySelectorAll('input').forEach(el => {
		if (el.name !== name || el.type === 'radio' || el.type === 'checkbox') return;
		setter.call(el, value);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		n++;
	});
	return n;
}`

const jsCheck = `(name, value) => {
	const el = Array.from(document.querySelectorAll('input[type="radio"]'))
		.find(r => r.name === name && r.value === value);
	if (!el) return false;
	if (!el.checked) el.click();
	return true;
}`

const jsSelectedVariant = `() => {
	const sel = document.querySelector('select[name="id"], input[type="radio"][name="id"]:checked, [data-selected-variant], [data-variant-id]');
	if (!sel) return ['', ''];
	const text = (sel.selectedOptions && sel.selectedOptions[0] && sel.selectedOptions[0].text) || '';
	const value = sel.value || (sel.dataset && (sel.dataset.variantId || sel.dataset.selectedVariant)) || '';
	return [text, String(value)];
}`

const jsKeyNodes = `const keyed = (selector) => {
	window.__rollerKeySeq = window.__rollerKeySeq || 0;
	return Array.from(document.querySelectorAll(selector)).map(el => {
		if (!el.hasAttribute('data-roller-key')) {
			el.setAttribute('data-roller-key', 'p' + (++window.__rollerKeySeq));
		}
		return el;
	});
};`

const jsPriceNodes = `(selector) => {
	` + jsVisible + `
	` + jsKeyNodes + `
	return keyed(selector).map(el => ({
		key: el.getAttribute('data-roller-key'),
		text: el.textContent,
		visible: visible(el),
		original: el.getAttribute('data-original-price') || '',
		has_original: el.hasAttribute('data-original-price'),
	}));
}`

const jsSnapshot = `(selector) => {
	` + jsVisible + `
	` + jsKeyNodes + `
	const inputs = Array.from(document.querySelectorAll('input')).filter(el => el.name).map(el => ({
		name: el.name,
		type: (el.type || 'text').toLowerCase(),
		value: el.value || '',
		checked: !!el.checked,
		visible: visible(el),
	}));
	const prices = {};
	keyed(selector).forEach(el => { prices[el.getAttribute('data-roller-key')] = el.textContent; });
	return { inputs, prices };
}`

const jsSetPriceText = `(key, text) => {
	const el = document.querySelector('[data-roller-key="' + key + '"]');
	if (!el) return false;
	el.textContent = text;
	return true;
}`

const jsSaveOriginal = `(key, text) => {
	const el = document.querySelector('[data-roller-key="' + key + '"]');
	if (el && !el.hasAttribute('data-original-price')) el.setAttribute('data-original-price', text);
}`

const jsClearOriginal = `(key) => {
	const el = document.querySelector('[data-roller-key="' + key + '"]');
	if (el) el.removeAttribute('data-original-price');
}`

const jsBanner = `() => {
	const box = document.querySelector('#minprice-wrap');
	if (!box) return { text: '', visible: false };
	return { text: box.textContent, visible: box.style.display !== 'none' };
}`

const jsSetBanner = `(text, show) => {
	let box = document.querySelector('#minprice-wrap');
	if (!box) {
		if (!show) return;
		box = document.createElement('div');
		box.id = 'minprice-wrap';
		box.setAttribute('role', 'alert');
		box.setAttribute('aria-live', 'polite');
		box.style.margin = '12px 0';
		box.style.padding = '8px';
		box.style.background = '#fff3cd';
		box.style.border = '2px solid #ffc107';
		box.style.borderRadius = '6px';
		box.style.color = '#856404';
		box.style.fontWeight = '600';
		const form = document.querySelector('form[action*="cart"]') || document.querySelector('form');
		const button = form && form.querySelector('button[type="submit"], button[data-add-to-cart], [data-add-to-cart]');
		if (button && button.parentNode) {
			button.parentNode.insertBefore(box, button);
		} else {
			const root = document.querySelector('.product-information') || document.querySelector('.product-details') || document.body;
			root.insertBefore(box, root.firstChild);
		}
	}
	box.textContent = text;
	box.style.display = show ? 'block' : 'none';
}`
